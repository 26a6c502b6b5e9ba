package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"minierp/internal/domain"
	"minierp/internal/errors"
	mysqlinfra "minierp/internal/infrastructure/mysql"
)

const productColumns = `id, name, description, price, stock_quantity, sku, created_at, updated_at`

type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.SKU,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *MySQLRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

func (r *MySQLRepository) FindByID(ctx context.Context, id int) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying product by id: %w", err)
	}
	return &p, nil
}

func (r *MySQLRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int) (*domain.Product, error) {
	p, err := scanProduct(tx.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("Product with ID %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("locking product: %w", err)
	}
	return &p, nil
}

// FindByIDsForUpdate locks the rows in ascending id order. Missing ids are
// simply absent from the result.
func (r *MySQLRepository) FindByIDsForUpdate(ctx context.Context, tx *sql.Tx, ids []int) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	placeholders := make([]string, len(sorted))
	args := make([]interface{}, len(sorted))
	for i, id := range sorted {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE id IN (%s)
		ORDER BY id
		FOR UPDATE`,
		productColumns, strings.Join(placeholders, ", "),
	)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("locking products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

func (r *MySQLRepository) Create(ctx context.Context, p *domain.Product) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO products (name, description, price, stock_quantity, sku, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.Price, p.StockQuantity, p.SKU, p.CreatedAt,
	)
	if err != nil {
		return translateWriteError(err, p)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	p.ID = int(id)
	return nil
}

func (r *MySQLRepository) Update(ctx context.Context, tx *sql.Tx, p domain.Product) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, price = ?, stock_quantity = ?, sku = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.Price, p.StockQuantity, p.SKU, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return translateWriteError(err, &p)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError("Product not found")
	}
	return nil
}

func (r *MySQLRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		if mysqlinfra.IsRowReferenced(err) {
			return errProductReferenced()
		}
		return fmt.Errorf("deleting product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError("Product not found")
	}
	return nil
}

func (r *MySQLRepository) IsReferenced(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM order_items WHERE product_id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking product references: %w", err)
	}
	return exists, nil
}

// DecrementStock only succeeds while enough stock remains; false means the
// row is missing or short.
func (r *MySQLRepository) DecrementStock(ctx context.Context, tx *sql.Tx, productID int, quantity int, at time.Time) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - ?, updated_at = ?
		WHERE id = ? AND stock_quantity >= ?`,
		quantity, at, productID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("decrementing stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *MySQLRepository) IncrementStock(ctx context.Context, tx *sql.Tx, productID int, quantity int, at time.Time) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + ?, updated_at = ?
		WHERE id = ?`,
		quantity, at, productID,
	)
	if err != nil {
		return fmt.Errorf("incrementing stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Product with ID %d not found", productID))
	}
	return nil
}

func errProductReferenced() error {
	return errors.NewConflictError("Cannot delete product. It is referenced in one or more orders.").
		WithSuggestion("Consider marking the product as inactive instead of deleting it.")
}

func translateWriteError(err error, p *domain.Product) error {
	if mysqlinfra.IsDuplicateKey(err) {
		sku := ""
		if p.SKU != nil {
			sku = *p.SKU
		}
		return errors.NewConflictError(fmt.Sprintf("A product with SKU '%s' already exists", sku))
	}
	if mysqlinfra.IsCheckViolation(err) {
		return errors.NewValidationError("validation failed", errors.ValidationDetail{
			Field:   "stockQuantity",
			Message: "Stock quantity cannot be negative",
		})
	}
	return fmt.Errorf("writing product: %w", err)
}
