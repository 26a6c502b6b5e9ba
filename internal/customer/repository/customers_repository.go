package repository

import (
	"context"
	"database/sql"
	"fmt"

	"minierp/internal/domain"
	"minierp/internal/errors"
	mysqlinfra "minierp/internal/infrastructure/mysql"
)

const customerColumns = `id, first_name, last_name, email, phone, address, created_at, updated_at`

type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *MySQLRepository) FindAll(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying customers: %w", err)
	}
	defer rows.Close()

	customers := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning customer row: %w", err)
		}
		customers = append(customers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating customer rows: %w", err)
	}

	return customers, nil
}

func (r *MySQLRepository) FindByID(ctx context.Context, id int) (*domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("Customer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying customer by id: %w", err)
	}
	return &c, nil
}

func (r *MySQLRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int) (*domain.Customer, error) {
	c, err := scanCustomer(tx.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("Customer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("locking customer: %w", err)
	}
	return &c, nil
}

func (r *MySQLRepository) Create(ctx context.Context, c *domain.Customer) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (first_name, last_name, email, phone, address, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.CreatedAt,
	)
	if err != nil {
		return translateWriteError(err, c.Email)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	c.ID = int(id)
	return nil
}

func (r *MySQLRepository) Update(ctx context.Context, tx *sql.Tx, c domain.Customer) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE customers
		SET first_name = ?, last_name = ?, email = ?, phone = ?, address = ?, updated_at = ?
		WHERE id = ?`,
		c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return translateWriteError(err, c.Email)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError("Customer not found")
	}
	return nil
}

func (r *MySQLRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		if mysqlinfra.IsRowReferenced(err) {
			return errCustomerHasOrders()
		}
		return fmt.Errorf("deleting customer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError("Customer not found")
	}
	return nil
}

func (r *MySQLRepository) HasOrders(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE customer_id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking customer orders: %w", err)
	}
	return exists, nil
}

func errCustomerHasOrders() error {
	return errors.NewConflictError("Cannot delete customer. The customer has one or more orders.")
}

func translateWriteError(err error, email string) error {
	if mysqlinfra.IsDuplicateKey(err) {
		return errors.NewConflictError(fmt.Sprintf("A customer with email '%s' already exists", email))
	}
	return fmt.Errorf("writing customer: %w", err)
}
