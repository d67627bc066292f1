package sweet

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func sweetRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"sweet_id", "name", "price", "quantity", "description", "image_url", "created_at", "updated_at"})
}

func TestAdjustQuantity_Applied(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("UPDATE sweets").
		WithArgs("s1", -3, sqlmock.AnyArg()).
		WillReturnRows(sweetRows().AddRow("s1", "Fudge", "12.50", 7, nil, nil, "t", "u"))

	s, err := repo.AdjustQuantity("s1", -3)
	if err != nil {
		t.Fatalf("AdjustQuantity failed: %v", err)
	}
	if s.Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", s.Quantity)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAdjustQuantity_InsufficientStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	// guard rejects the update, follow-up read reports current stock
	mock.ExpectQuery("UPDATE sweets").
		WithArgs("s1", -5, sqlmock.AnyArg()).
		WillReturnRows(sweetRows())
	mock.ExpectQuery("SELECT quantity FROM sweets").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(2))

	_, err = repo.AdjustQuantity("s1", -5)
	var stockErr InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 2 {
		t.Fatalf("expected 2 available, got %d", stockErr.Available)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAdjustQuantity_MissingSweet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("UPDATE sweets").
		WithArgs("gone", 1, sqlmock.AnyArg()).
		WillReturnRows(sweetRows())
	mock.ExpectQuery("SELECT quantity FROM sweets").
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}))

	if _, err := repo.AdjustQuantity("gone", 1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM sweets").
		WithArgs("gone").
		WillReturnRows(sweetRows())

	if _, err := repo.GetByID("gone"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
