package sweet

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	sweetColumns = `sweet_id, name, price, quantity, description, image_url, created_at, updated_at`

	getSweetByIDQuery = `
		SELECT sweet_id, name, price, quantity, description, image_url, created_at, updated_at
		FROM sweets
		WHERE sweet_id = $1
	`
	getSweetByNameQuery = `
		SELECT sweet_id, name, price, quantity, description, image_url, created_at, updated_at
		FROM sweets
		WHERE lower(name) = lower($1)
	`
	insertSweetQuery = `
		INSERT INTO sweets (sweet_id, name, price, quantity, description, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	updateSweetQuery = `
		UPDATE sweets
		SET name = $1,
			price = $2,
			quantity = $3,
			description = $4,
			image_url = $5,
			updated_at = $6
		WHERE sweet_id = $7
	`
	deleteSweetQuery = `DELETE FROM sweets WHERE sweet_id = $1`

	// the guarded increment leaves the row untouched when it would go negative
	adjustQuantityQuery = `
		UPDATE sweets
		SET quantity = quantity + $2, updated_at = $3
		WHERE sweet_id = $1 AND quantity + $2 >= 0
		RETURNING sweet_id, name, price, quantity, description, image_url, created_at, updated_at
	`
	lowStockQuery = `
		SELECT sweet_id, name, price, quantity, description, image_url, created_at, updated_at
		FROM sweets
		WHERE quantity <= $1
		ORDER BY quantity, name
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// sort columns are whitelisted so client input never reaches the ORDER BY raw
var sortColumns = map[string]string{
	"name":      "name",
	"price":     "price",
	"quantity":  "quantity",
	"createdAt": "created_at",
}

func (r *PostgresRepository) List(p ListParams) ([]Sweet, int, error) {
	col, ok := sortColumns[p.SortBy]
	if !ok {
		col = "name"
	}
	dir := "ASC"
	if p.SortOrder == "desc" {
		dir = "DESC"
	}
	page, limit := normalizePage(p.Page, p.Limit)

	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM sweets`).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT %s FROM sweets ORDER BY %s %s LIMIT $1 OFFSET $2`, sweetColumns, col, dir)
	rows, err := r.db.Query(q, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := collectSweets(rows)
	return out, total, err
}

func (r *PostgresRepository) Search(p SearchParams) ([]Sweet, int, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if q := strings.TrimSpace(p.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf(`(name ILIKE $%d OR description ILIKE $%d)`, len(args), len(args)))
	}
	if p.MinPrice != nil {
		args = append(args, *p.MinPrice)
		where = append(where, fmt.Sprintf(`price >= $%d`, len(args)))
	}
	if p.MaxPrice != nil {
		args = append(args, *p.MaxPrice)
		where = append(where, fmt.Sprintf(`price <= $%d`, len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM sweets`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(p.Page, p.Limit)
	args = append(args, limit, (page-1)*limit)
	q := fmt.Sprintf(`SELECT %s FROM sweets%s ORDER BY name LIMIT $%d OFFSET $%d`,
		sweetColumns, cond, len(args)-1, len(args))
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := collectSweets(rows)
	return out, total, err
}

func (r *PostgresRepository) GetByID(id string) (Sweet, error) {
	s, err := scanSweet(r.db.QueryRow(getSweetByIDQuery, id))
	if err == sql.ErrNoRows {
		return Sweet{}, ErrNotFound
	}
	return s, err
}

func (r *PostgresRepository) GetByName(name string) (Sweet, error) {
	s, err := scanSweet(r.db.QueryRow(getSweetByNameQuery, name))
	if err == sql.ErrNoRows {
		return Sweet{}, ErrNotFound
	}
	return s, err
}

func (r *PostgresRepository) Create(s Sweet) (Sweet, error) {
	if _, err := r.GetByName(s.Name); err == nil {
		return Sweet{}, ErrNameExists
	} else if err != ErrNotFound {
		return Sweet{}, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	s.CreatedAt = now
	s.UpdatedAt = now
	if _, err := r.db.Exec(insertSweetQuery, s.ID, s.Name, s.Price, s.Quantity, s.Description, s.ImageURL, s.CreatedAt, s.UpdatedAt); err != nil {
		return Sweet{}, err
	}
	return s, nil
}

func (r *PostgresRepository) Update(id string, s Sweet) (Sweet, error) {
	if existing, err := r.GetByName(s.Name); err == nil && existing.ID != id {
		return Sweet{}, ErrNameExists
	} else if err != nil && err != ErrNotFound {
		return Sweet{}, err
	}
	s.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	res, err := r.db.Exec(updateSweetQuery, s.Name, s.Price, s.Quantity, s.Description, s.ImageURL, s.UpdatedAt, id)
	if err != nil {
		return Sweet{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Sweet{}, ErrNotFound
	}
	return r.GetByID(id)
}

func (r *PostgresRepository) Delete(id string) error {
	res, err := r.db.Exec(deleteSweetQuery, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) AdjustQuantity(id string, delta int) (Sweet, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	s, err := scanSweet(r.db.QueryRow(adjustQuantityQuery, id, delta, now))
	if err == nil {
		return s, nil
	}
	if err != sql.ErrNoRows {
		return Sweet{}, err
	}
	// no row matched: either the sweet is gone or the guard rejected the delta
	var available int
	switch err := r.db.QueryRow(`SELECT quantity FROM sweets WHERE sweet_id = $1`, id).Scan(&available); err {
	case nil:
		return Sweet{}, InsufficientStockError{Available: available}
	case sql.ErrNoRows:
		return Sweet{}, ErrNotFound
	default:
		return Sweet{}, err
	}
}

func (r *PostgresRepository) LowStock(threshold int) ([]Sweet, error) {
	rows, err := r.db.Query(lowStockQuery, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSweets(rows)
}

func scanSweet(row rowScanner) (Sweet, error) {
	var s Sweet
	var desc, img, createdAt, updatedAt sql.NullString
	if err := row.Scan(&s.ID, &s.Name, &s.Price, &s.Quantity, &desc, &img, &createdAt, &updatedAt); err != nil {
		return Sweet{}, err
	}
	if desc.Valid {
		s.Description = &desc.String
	}
	if img.Valid {
		s.ImageURL = &img.String
	}
	s.CreatedAt = createdAt.String
	s.UpdatedAt = updatedAt.String
	return s, nil
}

func collectSweets(rows *sql.Rows) ([]Sweet, error) {
	out := make([]Sweet, 0)
	for rows.Next() {
		s, err := scanSweet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}
