package cart

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/naruebet14/sweet-shop-backend/internal/sweet"
)

func makeAppWithCartHandler(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				claims := jwt.MapClaims{"user_id": id}
				c.Locals("user", &jwt.Token{Claims: claims})
			}
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func TestCartRoutes_Basic(t *testing.T) {
	svc, _, _ := newTestService([]sweet.Sweet{seedSweet("s1", 15, 10)})
	app := makeAppWithCartHandler(NewHandler(svc))

	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Path] = true
		}
	}
	for _, p := range []string{"/api/v1/cart", "/api/v1/cart/add", "/api/v1/cart/update", "/api/v1/cart/item/:sweetId", "/api/v1/cart/clear"} {
		if !routes[p] {
			t.Fatalf("expected route %q to be registered", p)
		}
	}

	// unauthenticated requests are rejected
	res, _ := app.Test(httptest.NewRequest("GET", "/api/v1/cart", nil))
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthenticated GET, got %d", res.StatusCode)
	}

	// authenticated GET lazily creates an empty cart
	req := httptest.NewRequest("GET", "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "42")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for authenticated GET, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), `"items":[]`) {
		t.Fatalf("expected empty items in fresh cart, got %s", string(b))
	}

	// add two units
	req = httptest.NewRequest("POST", "/api/v1/cart/add", strings.NewReader(`{"sweetId":"s1","quantity":2}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "42")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for add, got %d", res.StatusCode)
	}
	b, _ = io.ReadAll(res.Body)
	var addResp struct {
		Cart  Cart   `json:"cart"`
		Total string `json:"total"`
	}
	if err := json.Unmarshal(b, &addResp); err != nil {
		t.Fatalf("bad add response %s: %v", string(b), err)
	}
	if got := lineQty(addResp.Cart, "s1"); got != 2 {
		t.Fatalf("expected line quantity 2, got %d", got)
	}
	if addResp.Total != "30" {
		t.Fatalf("expected total 30, got %s", addResp.Total)
	}

	// update to 1
	req = httptest.NewRequest("POST", "/api/v1/cart/update", strings.NewReader(`{"sweetId":"s1","quantity":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "42")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for update, got %d", res.StatusCode)
	}

	// remove the line
	req = httptest.NewRequest("DELETE", "/api/v1/cart/item/s1", nil)
	req.Header.Set("X-User-ID", "42")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for remove, got %d", res.StatusCode)
	}

	// removing again: 404
	req = httptest.NewRequest("DELETE", "/api/v1/cart/item/s1", nil)
	req.Header.Set("X-User-ID", "42")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for missing line, got %d", res.StatusCode)
	}

	// clear always succeeds
	req = httptest.NewRequest("DELETE", "/api/v1/cart/clear", nil)
	req.Header.Set("X-User-ID", "42")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for clear, got %d", res.StatusCode)
	}
}

func TestCartRoutes_ErrorMessages(t *testing.T) {
	svc, _, _ := newTestService([]sweet.Sweet{seedSweet("s1", 10, 2)})
	app := makeAppWithCartHandler(NewHandler(svc))

	// more than available: the message carries the remaining count
	req := httptest.NewRequest("POST", "/api/v1/cart/add", strings.NewReader(`{"sweetId":"s1","quantity":5}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "1")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for oversized add, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), "only 2 left in stock") {
		t.Fatalf("expected stock message, got %s", string(b))
	}

	// unknown sweet: 404
	req = httptest.NewRequest("POST", "/api/v1/cart/add", strings.NewReader(`{"sweetId":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "1")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown sweet, got %d", res.StatusCode)
	}

	// out-of-range quantity on update: 400
	req = httptest.NewRequest("POST", "/api/v1/cart/update", strings.NewReader(`{"sweetId":"s1","quantity":9}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "1")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for invalid quantity, got %d", res.StatusCode)
	}
}
