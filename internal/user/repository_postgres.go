package user

import (
	"database/sql"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	getUserByIDQuery = `
		SELECT user_id, email, password, name, role, created_at
		FROM users
		WHERE user_id = $1
	`
	getUserByEmailQuery = `
		SELECT user_id, email, password, name, role, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`
	insertUserQuery = `
		INSERT INTO users (email, password, name, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING user_id
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(id int) (User, error) {
	u, err := scanUser(r.db.QueryRow(getUserByIDQuery, id))
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *PostgresRepository) GetByEmail(email string) (User, error) {
	u, err := scanUser(r.db.QueryRow(getUserByEmailQuery, email))
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *PostgresRepository) Create(u User) (User, error) {
	if err := r.db.QueryRow(insertUserQuery, u.Email, u.Password, u.Name, u.Role, u.CreatedAt).Scan(&u.ID); err != nil {
		return User{}, err
	}
	return u, nil
}

func scanUser(row rowScanner) (User, error) {
	var u User
	var createdAt sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.Role, &createdAt); err != nil {
		return User{}, err
	}
	u.CreatedAt = createdAt.String
	return u, nil
}
