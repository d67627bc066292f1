package sweet

// Service wraps the repository with catalog validation rules.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(p ListParams) ([]Sweet, int, error) {
	return s.repo.List(p)
}

func (s *Service) Search(p SearchParams) ([]Sweet, int, error) {
	return s.repo.Search(p)
}

func (s *Service) GetByID(id string) (Sweet, error) {
	if id == "" {
		return Sweet{}, ErrNotFound
	}
	return s.repo.GetByID(id)
}

func (s *Service) Create(sw Sweet) (Sweet, error) {
	if err := sw.Validate(); err != nil {
		return Sweet{}, err
	}
	return s.repo.Create(sw)
}

func (s *Service) Update(id string, sw Sweet) (Sweet, error) {
	if err := sw.Validate(); err != nil {
		return Sweet{}, err
	}
	return s.repo.Update(id, sw)
}

func (s *Service) Delete(id string) error {
	return s.repo.Delete(id)
}

// AdjustQuantity applies a signed stock delta; InsufficientStockError when
// the result would be negative.
func (s *Service) AdjustQuantity(id string, delta int) (Sweet, error) {
	return s.repo.AdjustQuantity(id, delta)
}

// Purchase removes qty units from stock on behalf of a direct sale.
func (s *Service) Purchase(id string, qty int) (Sweet, error) {
	if qty < 1 {
		return Sweet{}, ValidationError("quantity must be a positive integer")
	}
	return s.repo.AdjustQuantity(id, -qty)
}

// Restock adds qty units back to stock (admin action).
func (s *Service) Restock(id string, qty int) (Sweet, error) {
	if qty < 1 {
		return Sweet{}, ValidationError("quantity must be a positive integer")
	}
	return s.repo.AdjustQuantity(id, qty)
}

func (s *Service) LowStock(threshold int) ([]Sweet, error) {
	if threshold < 0 {
		threshold = 0
	}
	return s.repo.LowStock(threshold)
}
