package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"minierp/internal/domain"
	"minierp/internal/errors"
	mysqlinfra "minierp/internal/infrastructure/mysql"
)

const orderSelect = `
	SELECT o.id, o.customer_id, c.first_name, c.last_name, o.order_number, o.order_date,
	       o.total_amount, o.status, o.created_at, o.updated_at
	FROM orders o
	JOIN customers c ON c.id = o.customer_id`

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order    domain.Order
		customer domain.Customer
		status   string
	)
	err := row.Scan(
		&order.ID, &order.CustomerID, &customer.FirstName, &customer.LastName,
		&order.OrderNumber, &order.OrderDate, &order.TotalAmount, &status,
		&order.CreatedAt, &order.UpdatedAt,
	)
	order.Status = domain.OrderStatus(status)
	order.CustomerName = customer.FullName()
	return order, err
}

func (r *MySQLOrderRepository) Insert(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	query := `
		INSERT INTO orders (customer_id, order_number, order_date, total_amount, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	result, err := tx.ExecContext(ctx, query,
		order.CustomerID, order.OrderNumber, order.OrderDate, order.TotalAmount,
		string(order.Status), order.CreatedAt,
	)
	if err != nil {
		if mysqlinfra.IsMissingParent(err) {
			return errors.NewNotFoundError("Customer not found")
		}
		if mysqlinfra.IsDuplicateKey(err) {
			return errors.NewConflictError(fmt.Sprintf("Order number %s already exists", order.OrderNumber))
		}
		if mysqlinfra.IsOutOfRange(err) {
			return errAmountOutOfRange()
		}
		return fmt.Errorf("inserting order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	order.ID = int(id)
	return nil
}

// FindByID returns the hydrated aggregate: customer name and product names.
func (r *MySQLOrderRepository) FindByID(ctx context.Context, id int) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+` WHERE o.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	items, err := loadItems(ctx, r.db, []int{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return &order, nil
}

func (r *MySQLOrderRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, orderSelect+` ORDER BY o.id`)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	var ids []int
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}
	rows.Close()

	items, err := loadItems(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

// LockByID takes the row lock on the order header only.
func (r *MySQLOrderRepository) LockByID(ctx context.Context, tx *sql.Tx, id int) error {
	var lockedID int
	err := tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = ? FOR UPDATE`, id).Scan(&lockedID)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError("Order not found")
	}
	if err != nil {
		return fmt.Errorf("locking order: %w", err)
	}
	return nil
}

func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, id int, status domain.OrderStatus, at time.Time) error {
	query := `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, string(status), at, id)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError("Order not found")
	}

	return nil
}

// Delete removes the order header; order_items cascade.
func (r *MySQLOrderRepository) Delete(ctx context.Context, tx *sql.Tx, id int) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError("Order not found")
	}

	return nil
}

func errAmountOutOfRange() error {
	return errors.NewValidationError("Order total exceeds the maximum amount", errors.ValidationDetail{
		Field:   "orderItems",
		Message: "Order total cannot exceed " + domain.MaxAmount.StringFixed(2),
	})
}
