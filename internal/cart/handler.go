package cart

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/naruebet14/sweet-shop-backend/internal/sweet"
	"github.com/naruebet14/sweet-shop-backend/internal/user"
	"github.com/shopspring/decimal"
)

// Handler delegates cart operations to the cart service. Every response
// carries the updated cart plus its recomputed total.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Post("/api/v1/cart/add", h.add)
	app.Post("/api/v1/cart/update", h.update)
	app.Delete("/api/v1/cart/item/:sweetId", h.remove)
	app.Delete("/api/v1/cart/clear", h.clear)
}

type addRequest struct {
	SweetID  string `json:"sweetId"`
	Quantity *int   `json:"quantity,omitempty"`
}

type updateRequest struct {
	SweetID  string `json:"sweetId"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	cart, total, err := h.service.Get(userID)
	if err != nil {
		return writeCartError(c, err)
	}
	return c.JSON(cartResponse(cart, total))
}

func (h *Handler) add(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(addRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.SweetID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "sweetId is required"})
	}
	qty := 1
	if payload.Quantity != nil {
		qty = *payload.Quantity
	}

	cart, total, err := h.service.Add(userID, payload.SweetID, qty)
	if err != nil {
		return writeCartError(c, err)
	}
	return c.JSON(cartResponse(cart, total, "added to cart"))
}

func (h *Handler) update(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(updateRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.SweetID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "sweetId is required"})
	}

	cart, total, err := h.service.Update(userID, payload.SweetID, payload.Quantity)
	if err != nil {
		return writeCartError(c, err)
	}
	return c.JSON(cartResponse(cart, total, "cart updated"))
}

func (h *Handler) remove(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	cart, total, err := h.service.Remove(userID, c.Params("sweetId"))
	if err != nil {
		return writeCartError(c, err)
	}
	return c.JSON(cartResponse(cart, total, "item removed"))
}

func (h *Handler) clear(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	cart, total, err := h.service.Clear(userID)
	if err != nil {
		return writeCartError(c, err)
	}
	return c.JSON(cartResponse(cart, total, "cart cleared"))
}

func cartResponse(cart Cart, total decimal.Decimal, message ...string) fiber.Map {
	m := fiber.Map{"cart": cart, "total": total}
	if len(message) > 0 {
		m["message"] = message[0]
	}
	return m
}

func writeCartError(c *fiber.Ctx, err error) error {
	var stock sweet.InsufficientStockError
	switch {
	case errors.Is(err, sweet.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "sweet not found"})
	case errors.Is(err, ErrLineNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "item not in cart"})
	case errors.Is(err, ErrLimitExceeded):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "limit reached (max 5 per item)"})
	case errors.Is(err, ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid quantity"})
	case errors.As(err, &stock):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": fmt.Sprintf("only %d left in stock", stock.Available)})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}
}
