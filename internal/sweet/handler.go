package sweet

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handler exposes the catalog and inventory endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterProtectedRoutes mounts the sweet routes. Every route requires a
// valid token; the admin-only ones additionally go through requireAdmin.
func (h *Handler) RegisterProtectedRoutes(app *fiber.App, requireAdmin fiber.Handler) {
	app.Get("/api/v1/sweets", h.list)
	app.Get("/api/v1/sweets/search", h.search)
	app.Get("/api/v1/sweets/low-stock", requireAdmin, h.lowStock)
	app.Get("/api/v1/sweets/:id", h.getByID)
	app.Post("/api/v1/sweets", requireAdmin, h.create)
	app.Put("/api/v1/sweets/:id", requireAdmin, h.update)
	app.Delete("/api/v1/sweets/:id", requireAdmin, h.delete)
	app.Post("/api/v1/sweets/:id/purchase", h.purchase)
	app.Post("/api/v1/sweets/:id/restock", requireAdmin, h.restock)
	app.Get("/api/v1/sweets/:id/stock", h.stock)
}

type sweetRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Description *string         `json:"description,omitempty"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) list(c *fiber.Ctx) error {
	p := ListParams{
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 10),
		SortBy:    c.Query("sortBy", "name"),
		SortOrder: c.Query("sortOrder", "asc"),
	}
	sweets, total, err := h.service.List(p)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to fetch sweets"})
	}
	return c.JSON(fiber.Map{
		"sweets":     sweets,
		"pagination": paginationInfo(p.Page, p.Limit, total),
	})
}

func (h *Handler) search(c *fiber.Ctx) error {
	p := SearchParams{
		Query: c.Query("q"),
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 10),
	}
	if v := c.Query("minPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid minPrice"})
		}
		p.MinPrice = &d
	}
	if v := c.Query("maxPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid maxPrice"})
		}
		p.MaxPrice = &d
	}
	sweets, total, err := h.service.Search(p)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to search sweets"})
	}
	return c.JSON(fiber.Map{
		"sweets":     sweets,
		"pagination": paginationInfo(p.Page, p.Limit, total),
	})
}

func (h *Handler) getByID(c *fiber.Ctx) error {
	s, err := h.service.GetByID(c.Params("id"))
	if err != nil {
		if err == ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "sweet not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to fetch sweet"})
	}
	return c.JSON(s)
}

func (h *Handler) create(c *fiber.Ctx) error {
	payload := new(sweetRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	created, err := h.service.Create(Sweet{
		Name:        payload.Name,
		Price:       payload.Price,
		Quantity:    payload.Quantity,
		Description: payload.Description,
		ImageURL:    payload.ImageURL,
	})
	if err != nil {
		return writeSweetError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) update(c *fiber.Ctx) error {
	payload := new(sweetRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	updated, err := h.service.Update(c.Params("id"), Sweet{
		Name:        payload.Name,
		Price:       payload.Price,
		Quantity:    payload.Quantity,
		Description: payload.Description,
		ImageURL:    payload.ImageURL,
	})
	if err != nil {
		return writeSweetError(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Params("id")); err != nil {
		return writeSweetError(c, err)
	}
	return c.JSON(fiber.Map{"message": "sweet deleted successfully"})
}

func (h *Handler) purchase(c *fiber.Ctx) error {
	payload := new(quantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	updated, err := h.service.Purchase(c.Params("id"), payload.Quantity)
	if err != nil {
		return writeSweetError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":           fmt.Sprintf("successfully purchased %d %s(s)", payload.Quantity, updated.Name),
		"sweet":             updated,
		"purchasedQuantity": payload.Quantity,
		"remainingQuantity": updated.Quantity,
	})
}

func (h *Handler) restock(c *fiber.Ctx) error {
	payload := new(quantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	updated, err := h.service.Restock(c.Params("id"), payload.Quantity)
	if err != nil {
		return writeSweetError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":           fmt.Sprintf("successfully restocked %d %s(s)", payload.Quantity, updated.Name),
		"sweet":             updated,
		"restockedQuantity": payload.Quantity,
		"newTotalQuantity":  updated.Quantity,
	})
}

func (h *Handler) stock(c *fiber.Ctx) error {
	s, err := h.service.GetByID(c.Params("id"))
	if err != nil {
		return writeSweetError(c, err)
	}
	status := "Out of Stock"
	if s.IsAvailable() {
		status = "In Stock"
	}
	return c.JSON(fiber.Map{
		"sweetId":      s.ID,
		"name":         s.Name,
		"currentStock": s.Quantity,
		"isAvailable":  s.IsAvailable(),
		"status":       status,
	})
}

func (h *Handler) lowStock(c *fiber.Ctx) error {
	threshold := c.QueryInt("threshold", 10)
	sweets, err := h.service.LowStock(threshold)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to fetch low stock items"})
	}
	return c.JSON(fiber.Map{
		"sweets":    sweets,
		"threshold": threshold,
		"count":     len(sweets),
	})
}

func writeSweetError(c *fiber.Ctx, err error) error {
	var ve ValidationError
	var stock InsufficientStockError
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "sweet not found"})
	case errors.Is(err, ErrNameExists):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "sweet with this name already exists"})
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": ve.Error()})
	case errors.As(err, &stock):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": fmt.Sprintf("insufficient stock. available quantity: %d", stock.Available)})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}
}

func paginationInfo(page, limit, total int) fiber.Map {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	totalPages := (total + limit - 1) / limit
	return fiber.Map{
		"currentPage": page,
		"totalPages":  totalPages,
		"totalSweets": total,
		"hasNext":     page < totalPages,
		"hasPrev":     page > 1,
	}
}
