package cart

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	ensureCartQuery = `
		INSERT INTO carts (user_id, updated_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	getCartQuery = `SELECT cart_id, user_id, updated_at FROM carts WHERE user_id = $1`

	getLinesQuery = `
		SELECT sweet_id, name, price, image_url, quantity
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY item_id
	`
	deleteStaleLinesQuery = `DELETE FROM cart_items WHERE cart_id = $1 AND sweet_id <> ALL($2)`
	deleteAllLinesQuery   = `DELETE FROM cart_items WHERE cart_id = $1`
	upsertLineQuery       = `
		INSERT INTO cart_items (cart_id, sweet_id, name, price, image_url, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cart_id, sweet_id)
		DO UPDATE SET quantity = EXCLUDED.quantity
	`
	touchCartQuery = `UPDATE carts SET updated_at = $1 WHERE cart_id = $2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetOrCreate(userID int) (Cart, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := r.db.Exec(ensureCartQuery, userID, now); err != nil {
		return Cart{}, err
	}

	var c Cart
	var updatedAt sql.NullString
	if err := r.db.QueryRow(getCartQuery, userID).Scan(&c.ID, &c.UserID, &updatedAt); err != nil {
		return Cart{}, err
	}
	c.UpdatedAt = updatedAt.String

	rows, err := r.db.Query(getLinesQuery, c.ID)
	if err != nil {
		return Cart{}, err
	}
	defer rows.Close()

	c.Lines = make([]Line, 0)
	for rows.Next() {
		var l Line
		var img sql.NullString
		if err := rows.Scan(&l.SweetID, &l.Name, &l.Price, &img, &l.Quantity); err != nil {
			return Cart{}, err
		}
		if img.Valid {
			l.ImageURL = &img.String
		}
		c.Lines = append(c.Lines, l)
	}
	return c, rows.Err()
}

// Save writes the cart's lines in one transaction: lines no longer present
// are deleted, the rest are upserted in place.
func (r *PostgresRepository) Save(c Cart) (Cart, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return Cart{}, err
	}
	defer tx.Rollback()

	if len(c.Lines) == 0 {
		if _, err := tx.Exec(deleteAllLinesQuery, c.ID); err != nil {
			return Cart{}, err
		}
	} else {
		keep := make([]string, 0, len(c.Lines))
		for _, l := range c.Lines {
			keep = append(keep, l.SweetID)
		}
		if _, err := tx.Exec(deleteStaleLinesQuery, c.ID, pq.Array(keep)); err != nil {
			return Cart{}, err
		}
		for _, l := range c.Lines {
			if _, err := tx.Exec(upsertLineQuery, c.ID, l.SweetID, l.Name, l.Price, l.ImageURL, l.Quantity); err != nil {
				return Cart{}, err
			}
		}
	}

	c.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(touchCartQuery, c.UpdatedAt, c.ID); err != nil {
		return Cart{}, err
	}

	if err := tx.Commit(); err != nil {
		return Cart{}, err
	}
	return c, nil
}
