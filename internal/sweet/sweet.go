package sweet

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Sweet represents a catalog item. Quantity is the authoritative available
// stock count; every mutation keeps it non-negative.
type Sweet struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Description *string         `json:"description,omitempty"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
	CreatedAt   string          `json:"createdAt,omitempty"`
	UpdatedAt   string          `json:"updatedAt,omitempty"`
}

// IsAvailable reports whether any stock is left.
func (s Sweet) IsAvailable() bool {
	return s.Quantity > 0
}

const maxDescriptionLength = 500

// ValidationError carries a display-ready message for a rejected payload.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// Validate checks the catalog rules: name at least 2 chars, price and
// quantity non-negative, description at most 500 chars.
func (s Sweet) Validate() error {
	if len(strings.TrimSpace(s.Name)) < 2 {
		return ValidationError("sweet name must be at least 2 characters long")
	}
	if s.Price.IsNegative() {
		return ValidationError("price cannot be negative")
	}
	if s.Quantity < 0 {
		return ValidationError("quantity cannot be negative")
	}
	if s.Description != nil && len(*s.Description) > maxDescriptionLength {
		return ValidationError(fmt.Sprintf("description cannot exceed %d characters", maxDescriptionLength))
	}
	return nil
}

// InsufficientStockError is returned when a reservation or purchase asks for
// more units than are available. Available holds the current stock so the
// message can be shown to the user as-is.
type InsufficientStockError struct {
	Available int
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d left in stock", e.Available)
}
