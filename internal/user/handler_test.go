package user

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-secret"

func makeAuthApp() (*fiber.App, *Handler) {
	h := NewHandler(NewService(NewInMemoryRepository(nil)), []byte(testSecret))
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	// stand-in for the jwt middleware: verify the bearer token ourselves
	app.Use(func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		}
		tok, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(t *jwt.Token) (any, error) {
			return []byte(testSecret), nil
		})
		if err != nil || !tok.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		}
		c.Locals("user", tok)
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app, h
}

func TestRegisterLoginMe(t *testing.T) {
	app, _ := makeAuthApp()

	// register issues a token right away
	req := httptest.NewRequest("POST", "/api/v1/auth/register",
		strings.NewReader(`{"email":"ann@example.com","password":"secret1","name":"Ann"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201 for register, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if strings.Contains(string(b), "secret1") || strings.Contains(string(b), "$2") {
		t.Fatalf("response must not leak the password: %s", string(b))
	}

	// login returns a usable token
	req = httptest.NewRequest("POST", "/api/v1/auth/login",
		strings.NewReader(`{"email":"ann@example.com","password":"secret1"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for login, got %d", res.StatusCode)
	}
	var loginResp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	b, _ = io.ReadAll(res.Body)
	if err := json.Unmarshal(b, &loginResp); err != nil {
		t.Fatalf("bad login response %s: %v", string(b), err)
	}
	if loginResp.Token == "" {
		t.Fatal("expected a token in the login response")
	}

	// the token unlocks /me
	req = httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for /me, got %d", res.StatusCode)
	}
	b, _ = io.ReadAll(res.Body)
	if !strings.Contains(string(b), "ann@example.com") {
		t.Fatalf("expected profile payload, got %s", string(b))
	}

	// no token: 401
	req = httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.StatusCode)
	}
}

func TestRegister_Validation(t *testing.T) {
	app, _ := makeAuthApp()

	cases := []string{
		`{"email":"not-an-email","password":"secret1","name":"Ann"}`,
		`{"email":"ann@example.com","password":"short","name":"Ann"}`,
		`{"email":"ann@example.com","password":"secret1","name":"A"}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		res, _ := app.Test(req)
		if res.StatusCode != fiber.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, res.StatusCode)
		}
	}
}

func TestLogin_WrongCredentials(t *testing.T) {
	app, _ := makeAuthApp()

	req := httptest.NewRequest("POST", "/api/v1/auth/login",
		strings.NewReader(`{"email":"ghost@example.com","password":"whatever"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", res.StatusCode)
	}
}
