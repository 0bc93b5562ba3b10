package media_test

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/models"
	"github.com/strata-cms/strata/internal/testutils"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

// uploadRequest posts a multipart form with one file part and optional
// extra fields.
func uploadRequest(t *testing.T, app *fiber.App, url, field, filename, contentType string, content []byte, fields map[string]string, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename)}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	assert.NoError(t, err)
	_, err = part.Write(content)
	assert.NoError(t, err)

	for k, v := range fields {
		assert.NoError(t, writer.WriteField(k, v))
	}
	assert.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", url, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)

	rec := httptest.NewRecorder()
	rec.Code = resp.StatusCode
	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()
	return rec
}

func setupMediaTest(t *testing.T) (*fiber.App, string) {
	t.Helper()
	app := testutils.SetupTestApp(t)
	admin := testutils.CreateTestUser(t, database.DB, "admin@test.com", "password", "admin")
	token := testutils.GetAuthToken(t, admin.ID, "admin")
	t.Cleanup(func() { os.RemoveAll("./uploads") })
	return app, token
}

func TestUploadMediaHandler(t *testing.T) {
	app, token := setupMediaTest(t)

	t.Run("Success returns a ready element payload", func(t *testing.T) {
		resp := uploadRequest(t, app, "/media/upload", "file", "hero.png", "image/png",
			[]byte("fake png bytes"), map[string]string{
				"alt":     "Hero shot",
				"caption": "The hero image",
				"tags":    `["banner"]`,
			}, token)
		assert.Equal(t, 201, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		data := result.Data.(map[string]interface{})

		file := data["file"].(map[string]interface{})
		assert.Equal(t, "image", file["kind"])
		assert.Equal(t, "image/png", file["mime"])
		assert.Contains(t, file["url"], "/uploads/image/")

		elem := data["element"].(map[string]interface{})
		assert.Equal(t, "media", elem["type"])
		elemData := elem["data"].(map[string]interface{})
		assert.Equal(t, file["url"], elemData["url"])
		assert.Equal(t, "image", elemData["kind"])
		assert.Equal(t, "Hero shot", elemData["alt"])
	})

	t.Run("Non-media MIME lands in the file kind", func(t *testing.T) {
		resp := uploadRequest(t, app, "/media/upload", "file", "paper.pdf", "application/pdf",
			[]byte("%PDF-1.4"), nil, token)
		assert.Equal(t, 201, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		file := result.Data.(map[string]interface{})["file"].(map[string]interface{})
		assert.Equal(t, "file", file["kind"])
		assert.Contains(t, file["url"], "/uploads/file/")
	})

	t.Run("Caption is sanitized", func(t *testing.T) {
		resp := uploadRequest(t, app, "/media/upload", "file", "clip.mp4", "video/mp4",
			[]byte("fake video"), map[string]string{
				"caption": `<script>alert(1)</script>Launch clip`,
			}, token)
		assert.Equal(t, 201, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		file := result.Data.(map[string]interface{})["file"].(map[string]interface{})
		assert.Equal(t, "Launch clip", file["caption"])
	})

	t.Run("Error - Missing file", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/media/upload", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 400, resp.Code)
	})

	t.Run("Error - Viewer cannot upload", func(t *testing.T) {
		viewer := testutils.CreateTestUser(t, database.DB, "viewer@test.com", "password", "viewer")
		viewerToken := testutils.GetAuthToken(t, viewer.ID, "viewer")

		resp := uploadRequest(t, app, "/media/upload", "file", "x.png", "image/png",
			[]byte("bytes"), nil, viewerToken)
		assert.Equal(t, 403, resp.Code)
	})
}

func TestListAndSearchMedia(t *testing.T) {
	app, token := setupMediaTest(t)

	uploads := []struct{ name, mime string }{
		{"cover.png", "image/png"},
		{"talk.mp3", "audio/mpeg"},
		{"notes.pdf", "application/pdf"},
	}
	for _, u := range uploads {
		resp := uploadRequest(t, app, "/media/upload", "file", u.name, u.mime, []byte("data"), nil, token)
		assert.Equal(t, 201, resp.Code)
	}

	t.Run("List all", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/media/", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.Len(t, result.Data.([]interface{}), 3)
		assert.Equal(t, int64(3), result.Meta.Total)
	})

	t.Run("Filter by kind", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/media/?kind=audio", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		rows := result.Data.([]interface{})
		assert.Len(t, rows, 1)
		assert.Equal(t, "talk.mp3", rows[0].(map[string]interface{})["file_name"])
	})

	t.Run("Error - Unknown kind", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/media/?kind=hologram", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 400, resp.Code)
		testutils.AssertError(t, resp, "BAD_REQUEST")
	})

	t.Run("Search by filename", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/media/search?q=notes", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		rows := result.Data.([]interface{})
		assert.Len(t, rows, 1)
		assert.Equal(t, "notes.pdf", rows[0].(map[string]interface{})["file_name"])
	})

	t.Run("Stats group by kind", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/media/stats", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		data := result.Data.(map[string]interface{})
		assert.Equal(t, float64(3), data["total_files"])
		byKind := data["by_kind"].(map[string]interface{})
		assert.Equal(t, float64(1), byKind["image"])
		assert.Equal(t, float64(1), byKind["audio"])
		assert.Equal(t, float64(1), byKind["file"])
		assert.Equal(t, "local", data["storage_mode"])
	})
}

func TestGetAndDeleteMedia(t *testing.T) {
	app, token := setupMediaTest(t)

	resp := uploadRequest(t, app, "/media/upload", "file", "inline.png", "image/png",
		[]byte("bytes"), nil, token)
	assert.Equal(t, 201, resp.Code)

	var uploaded testutils.StandardResponse
	testutils.ParseResponse(t, resp, &uploaded)
	file := uploaded.Data.(map[string]interface{})["file"].(map[string]interface{})
	mediaID := int(file["id"].(float64))
	mediaURL := file["url"].(string)

	t.Run("Get reports zero usage for an unreferenced asset", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", fmt.Sprintf("/media/%d", mediaID), nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		data := result.Data.(map[string]interface{})
		assert.Equal(t, float64(0), data["usage"])
		assert.Equal(t, "media", data["element"].(map[string]interface{})["type"])
	})

	t.Run("Referenced asset refuses plain delete", func(t *testing.T) {
		coll := models.Collection{Name: "Pages", Slug: "pages", Schema: datatypes.JSON(`{}`)}
		assert.NoError(t, database.DB.Create(&coll).Error)

		elements := fmt.Sprintf(`[{"id":"m1","type":"media","order":0,"data":{"url":%q,"kind":"image"}}]`, mediaURL)
		row := models.Content{
			CollectionID: coll.ID,
			Title:        "Landing",
			Slug:         "landing",
			Status:       models.StatusDraft,
			Elements:     datatypes.JSON(elements),
			CreatedBy:    1,
			UpdatedBy:    1,
		}
		assert.NoError(t, database.DB.Create(&row).Error)

		resp, err := testutils.MakeRequest(app, "DELETE", fmt.Sprintf("/media/%d", mediaID), nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 409, resp.Code)
		testutils.AssertError(t, resp, "CONFLICT")

		resp, err = testutils.MakeRequest(app, "GET", fmt.Sprintf("/media/%d", mediaID), nil, token)
		assert.NoError(t, err)
		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.Equal(t, float64(1), result.Data.(map[string]interface{})["usage"])
	})

	t.Run("Forced delete removes the record", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "DELETE", fmt.Sprintf("/media/%d?force=true", mediaID), nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 204, resp.Code)

		resp, err = testutils.MakeRequest(app, "GET", fmt.Sprintf("/media/%d", mediaID), nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("Error - Unknown id", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "DELETE", "/media/9999", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})
}

func TestUpdateMediaHandler(t *testing.T) {
	app, token := setupMediaTest(t)

	resp := uploadRequest(t, app, "/media/upload", "file", "shot.png", "image/png",
		[]byte("bytes"), nil, token)
	assert.Equal(t, 201, resp.Code)

	var uploaded testutils.StandardResponse
	testutils.ParseResponse(t, resp, &uploaded)
	file := uploaded.Data.(map[string]interface{})["file"].(map[string]interface{})
	mediaID := int(file["id"].(float64))

	t.Run("Success", func(t *testing.T) {
		body := map[string]interface{}{
			"alt":     "Team photo",
			"caption": "<b>Offsite</b><script>x()</script>",
			"folder":  "/events",
		}

		resp, err := testutils.MakeRequest(app, "PUT", fmt.Sprintf("/media/%d", mediaID), body, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		data := result.Data.(map[string]interface{})
		assert.Equal(t, "Team photo", data["alt"])
		assert.Equal(t, "<b>Offsite</b>", data["caption"])
		assert.Equal(t, "/events", data["folder"])
	})

	t.Run("Error - Unknown id", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "PUT", "/media/9999", map[string]interface{}{"alt": "x"}, token)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})
}

func TestMediaFolders(t *testing.T) {
	app, token := setupMediaTest(t)

	t.Run("Create root and nested folder", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/media/folders", map[string]interface{}{"name": "events"}, token)
		assert.NoError(t, err)
		assert.Equal(t, 201, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		root := result.Data.(map[string]interface{})
		assert.Equal(t, "/events", root["path"])
		rootID := int(root["id"].(float64))

		resp, err = testutils.MakeRequest(app, "POST", "/media/folders",
			map[string]interface{}{"name": "2026", "parent_id": rootID}, token)
		assert.NoError(t, err)
		assert.Equal(t, 201, resp.Code)

		testutils.ParseResponse(t, resp, &result)
		assert.Equal(t, "/events/2026", result.Data.(map[string]interface{})["path"])
	})

	t.Run("Error - Unknown parent", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/media/folders",
			map[string]interface{}{"name": "lost", "parent_id": 9999}, token)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("Error - Missing name", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/media/folders", map[string]interface{}{}, token)
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
		testutils.AssertError(t, resp, "VALIDATION_ERROR")
	})

	t.Run("List sorted by path", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/media/folders", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		rows := result.Data.([]interface{})
		assert.Len(t, rows, 2)
		assert.Equal(t, "/events", rows[0].(map[string]interface{})["path"])
	})
}
