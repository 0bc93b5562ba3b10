package auth

import (
	"errors"
	"fmt"
	"log"
	"net/smtp"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/strata-cms/strata/internal/response"
	"github.com/strata-cms/strata/internal/utils"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	UserID       uint   `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

func RegisterHandler(c *fiber.Ctx) error {
	var body RegisterRequest
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

	u, pair, err := RegisterUser(body.Name, body.Email, body.Password)
	if err != nil {
		return respondError(c, err)
	}

	return response.Created(c, fiber.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          u,
	}, "Registration successful")
}

func LoginHandler(c *fiber.Ctx) error {
	var body LoginRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.Email == "" || body.Password == "" {
		return response.ValidationError(c, map[string]string{
			"email":    "email is required",
			"password": "password is required",
		})
	}

	pair, err := LoginUser(body.Email, body.Password)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, pair, "Login successful")
}

func RefreshHandler(c *fiber.Ctx) error {
	var body RefreshRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.UserID == 0 || body.RefreshToken == "" {
		return response.ValidationError(c, map[string]string{
			"user_id":       "user_id is required",
			"refresh_token": "refresh_token is required",
		})
	}

	accessToken, refreshToken, err := utils.RefreshTokenPair(body.UserID, body.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, err.Error())
	}

	return response.Success(c, fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    900,
	}, "Token refreshed successfully")
}

func LogoutHandler(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	log.Printf("User %d logged out", userID)
	return response.Success(c, fiber.Map{"user_id": userID}, "Logout successful")
}

func ForgotPasswordHandler(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.Email == "" {
		return response.ValidationError(c, map[string]string{"email": "email is required"})
	}

	// The reply never reveals whether the account exists.
	token, err := StartPasswordReset(body.Email)
	if err != nil {
		return response.InternalError(c, "Failed to generate reset token")
	}
	if token != "" {
		sendResetMail(body.Email, token)
	}
	return response.Success(c, nil, "If account exists, reset link has been sent")
}

func ResetPasswordHandler(c *fiber.Ctx) error {
	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.Token == "" || body.NewPassword == "" {
		return response.ValidationError(c, map[string]string{
			"token":        "token is required",
			"new_password": "new_password is required",
		})
	}

	if err := CompletePasswordReset(body.Token, body.NewPassword); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, nil, "Password reset successful")
}

func sendResetMail(email, token string) {
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:3000"
	}
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", appURL, token)
	msg := fmt.Sprintf("Subject: Password Reset\n\nClick here to reset: %s", resetURL)

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Printf("SMTP not configured, reset link for %s: %s", email, resetURL)
		return
	}
	addr := host + ":" + os.Getenv("SMTP_PORT")
	auth := smtp.PlainAuth("", os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASSWORD"), host)
	if err := smtp.SendMail(addr, auth, os.Getenv("SMTP_USER"), []string{email}, []byte(msg)); err != nil {
		log.Printf("Failed to send reset mail to %s: %v", email, err)
	}
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return response.Unauthorized(c, err.Error())
	case errors.Is(err, ErrEmailTaken):
		return response.Conflict(c, err.Error())
	case errors.Is(err, ErrInvalidResetToken):
		return response.BadRequest(c, err.Error(), nil)
	default:
		return response.InternalError(c, "Something went wrong")
	}
}
