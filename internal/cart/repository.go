package cart

import (
	"sync"
	"time"
)

// Repository stores carts. GetOrCreate never fails with "not found": a user
// without a cart gets a fresh empty one.
type Repository interface {
	GetOrCreate(userID int) (Cart, error)
	Save(c Cart) (Cart, error)
}

// InMemoryRepository keeps carts in a map for tests and database-less runs.
type InMemoryRepository struct {
	mu     sync.RWMutex
	carts  map[int]Cart
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{carts: make(map[int]Cart), nextID: 1}
}

func (r *InMemoryRepository) GetOrCreate(userID int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[userID]; ok {
		return cloneCart(c), nil
	}
	c := Cart{
		ID:        r.nextID,
		UserID:    userID,
		Lines:     []Line{},
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	r.nextID++
	r.carts[userID] = c
	return cloneCart(c), nil
}

func (r *InMemoryRepository) Save(c Cart) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	r.carts[c.UserID] = cloneCart(c)
	return c, nil
}

// DropLines removes every line referencing the given sweet from all carts.
// Wired to the sweet repository's delete hook so catalog deletes cascade the
// same way the postgres FK does.
func (r *InMemoryRepository) DropLines(sweetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, c := range r.carts {
		c.removeLine(sweetID)
		r.carts[userID] = c
	}
}

func cloneCart(c Cart) Cart {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	c.Lines = lines
	return c
}
