package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/strata-cms/strata/internal/response"
)

func CreateUserHandler(c *fiber.Ctx) error {
	var body SaveUserRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	fieldErrors := map[string]string{}
	if body.Name == "" {
		fieldErrors["name"] = "name is required"
	}
	if body.Email == "" {
		fieldErrors["email"] = "email is required"
	}
	if body.Password == "" {
		fieldErrors["password"] = "password is required"
	}
	if len(fieldErrors) > 0 {
		return response.ValidationError(c, fieldErrors)
	}

	u, err := CreateUser(body)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, u, "User created successfully")
}

func ListUsersHandler(c *fiber.Ctx) error {
	users, err := ListUsers()
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, users, "Users retrieved successfully")
}

func GetUserHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	u, err := GetUser(uint(id))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, u, "User retrieved successfully")
}

func UpdateUserHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	var body SaveUserRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	u, err := UpdateUser(uint(id), body)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, u, "User updated successfully")
}

func DeleteUserHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	actorID := c.Locals("user_id").(uint)
	if err := DeleteUser(uint(id), actorID); err != nil {
		return respondError(c, err)
	}
	return response.NoContent(c)
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return response.NotFound(c, "User")
	case errors.Is(err, ErrRoleNotFound):
		return response.NotFound(c, "Role")
	case errors.Is(err, ErrEmailTaken):
		return response.Conflict(c, err.Error())
	case errors.Is(err, ErrSelfDelete):
		return response.BadRequest(c, err.Error(), nil)
	default:
		return response.InternalError(c, "Something went wrong")
	}
}
