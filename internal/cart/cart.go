package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

const maxPerItem = 5

var (
	ErrLineNotFound    = errors.New("item not in cart")
	ErrLimitExceeded   = errors.New("limit reached (max 5 per item)")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Line is one reserved (sweet, quantity) pair in a cart. Name, price and
// image are snapshotted at add-time so the cart display does not change if
// the catalog is edited later; stock math always uses live sweet data.
type Line struct {
	SweetID  string          `json:"sweetId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL *string         `json:"imageUrl,omitempty"`
	Quantity int             `json:"quantity"`
}

// Cart holds a single user's reserved items. One cart per user, created
// lazily on first access.
type Cart struct {
	ID        int    `json:"id"`
	UserID    int    `json:"userId"`
	Lines     []Line `json:"items"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Total is the sum of price*quantity over all lines, recomputed on demand.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func (c Cart) line(sweetID string) (int, *Line) {
	for i := range c.Lines {
		if c.Lines[i].SweetID == sweetID {
			return i, &c.Lines[i]
		}
	}
	return -1, nil
}

func (c *Cart) removeLine(sweetID string) {
	for i := range c.Lines {
		if c.Lines[i].SweetID == sweetID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}
