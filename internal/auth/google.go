package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var (
	googleOnce   sync.Once
	googleConfig *oauth2.Config
)

// oauthConfig is built on first use so env loading in main has already
// happened by the time client credentials are read.
func oauthConfig() *oauth2.Config {
	googleOnce.Do(func() {
		redirect := os.Getenv("GOOGLE_REDIRECT_URL")
		if redirect == "" {
			redirect = "http://localhost:8080/auth/google/callback"
		}
		googleConfig = &oauth2.Config{
			RedirectURL:  redirect,
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	})
	return googleConfig
}

// stateJar holds short-lived OAuth state values so the callback can
// reject forged requests. Single-use: validation removes the state.
type stateJar struct {
	mu     sync.Mutex
	states map[string]time.Time
}

var oauthStates = &stateJar{states: make(map[string]time.Time)}

func (j *stateJar) issue() string {
	b := make([]byte, 32)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)

	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	for k, expiry := range j.states {
		if now.After(expiry) {
			delete(j.states, k)
		}
	}
	j.states[state] = now.Add(5 * time.Minute)
	return state
}

func (j *stateJar) consume(state string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	expiry, ok := j.states[state]
	if !ok || time.Now().After(expiry) {
		return false
	}
	delete(j.states, state)
	return true
}

type googleProfile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func GoogleLogin(c *fiber.Ctx) error {
	state := oauthStates.issue()
	return c.Redirect(oauthConfig().AuthCodeURL(state))
}

func GoogleCallback(c *fiber.Ctx) error {
	if !oauthStates.consume(c.Query("state")) {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid state parameter")
	}

	token, err := oauthConfig().Exchange(context.Background(), c.Query("code"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to exchange token")
	}

	profile, err := fetchGoogleProfile(token)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get user info")
	}

	u, err := findOrCreateOAuthUser(profile.Name, profile.Email, "google")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to sign in user"})
	}

	pair, err := issueTokens(u)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to issue tokens"})
	}

	u.Password = ""
	return c.JSON(fiber.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          u,
	})
}

func fetchGoogleProfile(token *oauth2.Token) (*googleProfile, error) {
	client := oauthConfig().Client(context.Background(), token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var profile googleProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
