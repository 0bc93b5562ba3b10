package customelement_test

import (
	"testing"

	"github.com/strata-cms/strata/internal/customelement"
	"github.com/stretchr/testify/assert"
)

func TestTypePattern(t *testing.T) {
	valid := []string{"custom_gallery", "custom_a", "custom_hero_v2", "custom_x9"}
	for _, v := range valid {
		assert.True(t, customelement.IsValidType(v), v)
	}

	invalid := []string{
		"gallery",          // missing prefix
		"custom_",          // nothing after prefix
		"custom_9lives",    // must start with a letter
		"custom_Gallery",   // uppercase
		"custom_has space", // space
		"CUSTOM_gallery",   // uppercase prefix
	}
	for _, v := range invalid {
		assert.False(t, customelement.IsValidType(v), v)
	}
}

func TestGenerateType(t *testing.T) {
	cases := map[string]string{
		"Photo Gallery":    "custom_photo_gallery",
		"Hero-Banner":      "custom_hero_banner",
		"  FAQ  Section  ": "custom_faq_section",
		"3D Viewer":        "custom_d_viewer",
		"123":              "custom_element",
		"":                 "custom_element",
		"Émission":         "custom_mission",
		"a__b":             "custom_a_b",
	}

	for label, want := range cases {
		assert.Equal(t, want, customelement.GenerateType(label), "label %q", label)
	}
}

func TestSemanticType(t *testing.T) {
	assert.Equal(t, "number", customelement.Field{Input: "number"}.SemanticType())
	assert.Equal(t, "boolean", customelement.Field{Input: "boolean"}.SemanticType())
	assert.Equal(t, "array", customelement.Field{Input: "multiselect"}.SemanticType())
	assert.Equal(t, "array", customelement.Field{Input: "tags"}.SemanticType())
	assert.Equal(t, "string", customelement.Field{Input: "text"}.SemanticType())
	assert.Equal(t, "string", customelement.Field{Input: "media"}.SemanticType())
	assert.Equal(t, "string", customelement.Field{Input: "select"}.SemanticType())
}

func TestComputeDefaultData(t *testing.T) {
	def := &customelement.Definition{
		Type: "custom_card",
		Fields: []customelement.Field{
			{Name: "title", Input: "string", Default: "Untitled"},
			{Name: "columns", Input: "number", Default: float64(2)},
			{Name: "footer", Input: "string"},
		},
		DefaultData: map[string]any{
			"title": "From default_data",
		},
	}

	data := customelement.ComputeDefaultData(def)

	// default_data wins over field defaults
	assert.Equal(t, "From default_data", data["title"])
	assert.Equal(t, float64(2), data["columns"])
	_, hasFooter := data["footer"]
	assert.False(t, hasFooter)
}

func TestIsValidCategory(t *testing.T) {
	for _, c := range customelement.Categories {
		assert.True(t, customelement.IsValidCategory(c))
	}
	assert.False(t, customelement.IsValidCategory("misc"))
	assert.False(t, customelement.IsValidCategory(""))
}
