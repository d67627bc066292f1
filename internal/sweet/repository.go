package sweet

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound   = errors.New("sweet not found")
	ErrNameExists = errors.New("sweet with this name already exists")
)

// ListParams controls pagination and ordering for catalog listings.
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string // name, price, quantity, createdAt
	SortOrder string // asc, desc
}

// SearchParams filters the catalog by free text and price range.
type SearchParams struct {
	Query    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Page     int
	Limit    int
}

// Repository provides access to the sweet catalog. List and Search return the
// matching page plus the total number of matches.
type Repository interface {
	List(p ListParams) ([]Sweet, int, error)
	Search(p SearchParams) ([]Sweet, int, error)
	GetByID(id string) (Sweet, error)
	GetByName(name string) (Sweet, error)
	Create(s Sweet) (Sweet, error)
	Update(id string, s Sweet) (Sweet, error)
	Delete(id string) error
	// AdjustQuantity applies quantity += delta atomically. It fails with
	// InsufficientStockError when the result would be negative, leaving the
	// row unchanged.
	AdjustQuantity(id string, delta int) (Sweet, error)
	LowStock(threshold int) ([]Sweet, error)
}

// InMemoryRepository is a mutex-guarded implementation used for tests and
// running without a database.
type InMemoryRepository struct {
	mu       sync.RWMutex
	storage  []Sweet
	onDelete func(sweetID string)
}

func NewInMemoryRepository(seed []Sweet) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]Sweet, 0, len(seed))}
	for _, s := range seed {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		r.storage = append(r.storage, s)
	}
	return r
}

// OnDelete registers a hook invoked after a sweet is removed. cmd/app wires
// this to the cart repository so lines referencing the sweet are dropped,
// mirroring the FK cascade of the postgres schema.
func (r *InMemoryRepository) OnDelete(fn func(sweetID string)) {
	r.onDelete = fn
}

func (r *InMemoryRepository) List(p ListParams) ([]Sweet, int, error) {
	r.mu.RLock()
	all := make([]Sweet, len(r.storage))
	copy(all, r.storage)
	r.mu.RUnlock()

	sortSweets(all, p.SortBy, p.SortOrder)
	total := len(all)
	return paginate(all, p.Page, p.Limit), total, nil
}

func (r *InMemoryRepository) Search(p SearchParams) ([]Sweet, int, error) {
	r.mu.RLock()
	matched := make([]Sweet, 0)
	q := strings.ToLower(strings.TrimSpace(p.Query))
	for _, s := range r.storage {
		if q != "" {
			name := strings.ToLower(s.Name)
			desc := ""
			if s.Description != nil {
				desc = strings.ToLower(*s.Description)
			}
			if !strings.Contains(name, q) && !strings.Contains(desc, q) {
				continue
			}
		}
		if p.MinPrice != nil && s.Price.LessThan(*p.MinPrice) {
			continue
		}
		if p.MaxPrice != nil && s.Price.GreaterThan(*p.MaxPrice) {
			continue
		}
		matched = append(matched, s)
	}
	r.mu.RUnlock()

	sortSweets(matched, "name", "asc")
	total := len(matched)
	return paginate(matched, p.Page, p.Limit), total, nil
}

func (r *InMemoryRepository) GetByID(id string) (Sweet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.storage {
		if s.ID == id {
			return s, nil
		}
	}
	return Sweet{}, ErrNotFound
}

func (r *InMemoryRepository) GetByName(name string) (Sweet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.storage {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return Sweet{}, ErrNotFound
}

func (r *InMemoryRepository) Create(s Sweet) (Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.storage {
		if strings.EqualFold(existing.Name, s.Name) {
			return Sweet{}, ErrNameExists
		}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	s.CreatedAt = now
	s.UpdatedAt = now
	r.storage = append(r.storage, s)
	return s, nil
}

func (r *InMemoryRepository) Update(id string, s Sweet) (Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.storage {
		if existing.ID != id && strings.EqualFold(existing.Name, s.Name) {
			return Sweet{}, ErrNameExists
		}
	}
	for i := range r.storage {
		if r.storage[i].ID == id {
			s.ID = id
			s.CreatedAt = r.storage[i].CreatedAt
			s.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
			r.storage[i] = s
			return s, nil
		}
	}
	return Sweet{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(id string) error {
	r.mu.Lock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			r.mu.Unlock()
			if r.onDelete != nil {
				r.onDelete(id)
			}
			return nil
		}
	}
	r.mu.Unlock()
	return ErrNotFound
}

func (r *InMemoryRepository) AdjustQuantity(id string, delta int) (Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			next := r.storage[i].Quantity + delta
			if next < 0 {
				return Sweet{}, InsufficientStockError{Available: r.storage[i].Quantity}
			}
			r.storage[i].Quantity = next
			r.storage[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
			return r.storage[i], nil
		}
	}
	return Sweet{}, ErrNotFound
}

func (r *InMemoryRepository) LowStock(threshold int) ([]Sweet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Sweet, 0)
	for _, s := range r.storage {
		if s.Quantity <= threshold {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity < out[j].Quantity })
	return out, nil
}

func sortSweets(items []Sweet, sortBy, sortOrder string) {
	desc := sortOrder == "desc"
	less := func(a, b Sweet) bool { return a.Name < b.Name }
	switch sortBy {
	case "price":
		less = func(a, b Sweet) bool { return a.Price.LessThan(b.Price) }
	case "quantity":
		less = func(a, b Sweet) bool { return a.Quantity < b.Quantity }
	case "createdAt":
		less = func(a, b Sweet) bool { return a.CreatedAt < b.CreatedAt }
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func paginate(items []Sweet, page, limit int) []Sweet {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []Sweet{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
