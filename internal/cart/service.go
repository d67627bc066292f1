package cart

import (
	"sync"

	"github.com/naruebet14/sweet-shop-backend/internal/sweet"
	"github.com/shopspring/decimal"
)

// Inventory is the slice of the sweet catalog the cart needs: a read and an
// atomic guarded stock adjustment.
type Inventory interface {
	GetByID(id string) (sweet.Sweet, error)
	AdjustQuantity(id string, delta int) (sweet.Sweet, error)
}

// Service maintains one cart per user and keeps cart lines and sweet stock
// balanced: every unit added to a line is removed from the sweet's quantity
// and released back when the line shrinks, is removed, or the cart is
// cleared.
//
// Mutations for a given sweet are serialized through a per-sweet mutex so
// two concurrent adds cannot both pass the stock check. The inventory
// decrement itself is atomic as well, so stock can never go negative even
// across processes; the lock keeps line quantity and stock moving together.
type Service struct {
	repo  Repository
	inv   Inventory
	locks sweetLocks
}

func NewService(repo Repository, inv Inventory) *Service {
	return &Service{repo: repo, inv: inv}
}

// Get fetches the user's cart, creating an empty one on first access.
func (s *Service) Get(userID int) (Cart, decimal.Decimal, error) {
	c, err := s.repo.GetOrCreate(userID)
	if err != nil {
		return Cart{}, decimal.Zero, err
	}
	return c, c.Total(), nil
}

// Add reserves up to qty units of a sweet into the user's cart. The line is
// capped at 5 units: the reserved amount is min(5-current, qty), and asking
// for more when already at the cap fails with ErrLimitExceeded.
func (s *Service) Add(userID int, sweetID string, qty int) (Cart, decimal.Decimal, error) {
	if qty < 1 {
		return Cart{}, decimal.Zero, ErrInvalidQuantity
	}

	unlock := s.locks.lock(sweetID)
	defer unlock()

	sw, err := s.inv.GetByID(sweetID)
	if err != nil {
		return Cart{}, decimal.Zero, err
	}
	c, err := s.repo.GetOrCreate(userID)
	if err != nil {
		return Cart{}, decimal.Zero, err
	}

	current := 0
	_, line := c.line(sweetID)
	if line != nil {
		current = line.Quantity
	}
	requested := min(maxPerItem-current, qty)
	if requested <= 0 {
		return Cart{}, decimal.Zero, ErrLimitExceeded
	}

	if _, err := s.inv.AdjustQuantity(sweetID, -requested); err != nil {
		return Cart{}, decimal.Zero, err
	}

	if line != nil {
		line.Quantity += requested
	} else {
		c.Lines = append(c.Lines, Line{
			SweetID:  sw.ID,
			Name:     sw.Name,
			Price:    sw.Price,
			ImageURL: sw.ImageURL,
			Quantity: requested,
		})
	}

	saved, err := s.repo.Save(c)
	if err != nil {
		// the reservation went through but the cart didn't; hand the units back
		s.release(sweetID, requested)
		return Cart{}, decimal.Zero, err
	}
	return saved, saved.Total(), nil
}

// Update sets a line to an absolute quantity in [0, 5], reserving or
// releasing the difference. Quantity 0 removes the line.
func (s *Service) Update(userID int, sweetID string, newQty int) (Cart, decimal.Decimal, error) {
	if newQty < 0 || newQty > maxPerItem {
		return Cart{}, decimal.Zero, ErrInvalidQuantity
	}

	unlock := s.locks.lock(sweetID)
	defer unlock()

	c, err := s.repo.GetOrCreate(userID)
	if err != nil {
		return Cart{}, decimal.Zero, err
	}
	_, line := c.line(sweetID)
	if line == nil {
		return Cart{}, decimal.Zero, ErrLineNotFound
	}
	if _, err := s.inv.GetByID(sweetID); err != nil {
		return Cart{}, decimal.Zero, err
	}

	delta := newQty - line.Quantity
	if delta != 0 {
		// releasing (delta < 0) cannot fail stock-wise; reserving can
		if _, err := s.inv.AdjustQuantity(sweetID, -delta); err != nil {
			return Cart{}, decimal.Zero, err
		}
	}

	line.Quantity = newQty
	if newQty == 0 {
		c.removeLine(sweetID)
	}

	saved, err := s.repo.Save(c)
	if err != nil {
		if delta != 0 {
			s.release(sweetID, delta)
		}
		return Cart{}, decimal.Zero, err
	}
	return saved, saved.Total(), nil
}

// Remove drops a line and releases its full reserved quantity back to stock.
// If the sweet was deleted from the catalog in the meantime the release is
// skipped; the line is removed regardless.
func (s *Service) Remove(userID int, sweetID string) (Cart, decimal.Decimal, error) {
	unlock := s.locks.lock(sweetID)
	defer unlock()

	c, err := s.repo.GetOrCreate(userID)
	if err != nil {
		return Cart{}, decimal.Zero, err
	}
	_, line := c.line(sweetID)
	if line == nil {
		return Cart{}, decimal.Zero, ErrLineNotFound
	}

	if _, err := s.inv.AdjustQuantity(sweetID, line.Quantity); err != nil && err != sweet.ErrNotFound {
		return Cart{}, decimal.Zero, err
	}

	c.removeLine(sweetID)
	saved, err := s.repo.Save(c)
	if err != nil {
		return Cart{}, decimal.Zero, err
	}
	return saved, saved.Total(), nil
}

// Clear empties the cart, releasing every line's quantity. Missing sweets
// are skipped, not an error; clearing an empty cart is a no-op.
func (s *Service) Clear(userID int) (Cart, decimal.Decimal, error) {
	c, err := s.repo.GetOrCreate(userID)
	if err != nil {
		return Cart{}, decimal.Zero, err
	}

	for _, line := range c.Lines {
		unlock := s.locks.lock(line.SweetID)
		if _, err := s.inv.AdjustQuantity(line.SweetID, line.Quantity); err != nil && err != sweet.ErrNotFound {
			unlock()
			return Cart{}, decimal.Zero, err
		}
		unlock()
	}

	c.Lines = []Line{}
	saved, err := s.repo.Save(c)
	if err != nil {
		return Cart{}, decimal.Zero, err
	}
	return saved, saved.Total(), nil
}

// release is the compensating action for a reservation whose cart save
// failed. Best-effort: if the sweet vanished there is nothing to hand back.
func (s *Service) release(sweetID string, reserved int) {
	_, _ = s.inv.AdjustQuantity(sweetID, reserved)
}

// sweetLocks hands out one mutex per sweet id.
type sweetLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *sweetLocks) lock(sweetID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[sweetID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sweetID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
