package user_test

import (
	"fmt"
	"testing"

	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/models"
	"github.com/strata-cms/strata/internal/testutils"
	"github.com/stretchr/testify/assert"
)

func roleID(t *testing.T, name string) uint {
	t.Helper()
	var role models.Role
	assert.NoError(t, database.DB.Where("name = ?", name).First(&role).Error)
	return role.ID
}

func TestCreateUserHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)
	admin := testutils.CreateTestUser(t, database.DB, "admin@test.com", "password", "admin")
	token := testutils.GetAuthToken(t, admin.ID, "admin")

	t.Run("Success", func(t *testing.T) {
		body := map[string]interface{}{
			"name":     "New Editor",
			"email":    "editor@test.com",
			"password": "password123",
			"role_id":  roleID(t, "editor"),
		}

		resp, err := testutils.MakeRequest(app, "POST", "/users/", body, token)
		assert.NoError(t, err)
		assert.Equal(t, 201, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		data := result.Data.(map[string]interface{})
		assert.Equal(t, "editor@test.com", data["email"])
		assert.Equal(t, "editor", data["role"].(map[string]interface{})["name"])
		assert.Nil(t, data["password"])
	})

	t.Run("Error - Duplicate email", func(t *testing.T) {
		body := map[string]interface{}{
			"name":     "Copycat",
			"email":    "editor@test.com",
			"password": "password123",
			"role_id":  roleID(t, "editor"),
		}

		resp, err := testutils.MakeRequest(app, "POST", "/users/", body, token)
		assert.NoError(t, err)
		assert.Equal(t, 409, resp.Code)
		testutils.AssertError(t, resp, "CONFLICT")
	})

	t.Run("Error - Missing fields", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/users/", map[string]interface{}{"name": "No Email"}, token)
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
		testutils.AssertError(t, resp, "VALIDATION_ERROR")
	})

	t.Run("Error - Unknown role", func(t *testing.T) {
		body := map[string]interface{}{
			"name":     "Orphan",
			"email":    "orphan@test.com",
			"password": "password123",
			"role_id":  9999,
		}

		resp, err := testutils.MakeRequest(app, "POST", "/users/", body, token)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
		testutils.AssertError(t, resp, "NOT_FOUND")
	})

	t.Run("Error - Non-admin cannot manage users", func(t *testing.T) {
		editor := testutils.CreateTestUser(t, database.DB, "other-editor@test.com", "password", "editor")
		editorToken := testutils.GetAuthToken(t, editor.ID, "editor")

		resp, err := testutils.MakeRequest(app, "GET", "/users/", nil, editorToken)
		assert.NoError(t, err)
		assert.Equal(t, 403, resp.Code)
	})
}

func TestUserLifecycle(t *testing.T) {
	app := testutils.SetupTestApp(t)
	admin := testutils.CreateTestUser(t, database.DB, "admin@test.com", "password", "admin")
	token := testutils.GetAuthToken(t, admin.ID, "admin")

	subject := testutils.CreateTestUser(t, database.DB, "subject@test.com", "password", "viewer")

	t.Run("List includes both users", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/users/", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.Len(t, result.Data.([]interface{}), 2)
	})

	t.Run("Get by id", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", fmt.Sprintf("/users/%d", subject.ID), nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		data := result.Data.(map[string]interface{})
		assert.Equal(t, "subject@test.com", data["email"])
	})

	t.Run("Error - Unknown id", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/users/9999", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("Update name and role", func(t *testing.T) {
		body := map[string]interface{}{
			"name":    "Promoted Subject",
			"role_id": roleID(t, "publisher"),
		}

		resp, err := testutils.MakeRequest(app, "PUT", fmt.Sprintf("/users/%d", subject.ID), body, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		data := result.Data.(map[string]interface{})
		assert.Equal(t, "Promoted Subject", data["name"])
		assert.Equal(t, "publisher", data["role"].(map[string]interface{})["name"])
	})

	t.Run("Error - Update to taken email", func(t *testing.T) {
		body := map[string]interface{}{"email": "admin@test.com"}

		resp, err := testutils.MakeRequest(app, "PUT", fmt.Sprintf("/users/%d", subject.ID), body, token)
		assert.NoError(t, err)
		assert.Equal(t, 409, resp.Code)
		testutils.AssertError(t, resp, "CONFLICT")
	})

	t.Run("Error - Cannot delete own account", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "DELETE", fmt.Sprintf("/users/%d", admin.ID), nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 400, resp.Code)
		testutils.AssertError(t, resp, "BAD_REQUEST")
	})

	t.Run("Delete", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "DELETE", fmt.Sprintf("/users/%d", subject.ID), nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 204, resp.Code)

		resp, err = testutils.MakeRequest(app, "GET", fmt.Sprintf("/users/%d", subject.ID), nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})
}
