package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

// Tables in dependency order, parents first.
var schema = []struct {
	name  string
	query string
}{
	{"customers", `
	CREATE TABLE IF NOT EXISTS customers (
		id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(100) NOT NULL,
		phone VARCHAR(20) NULL,
		address VARCHAR(200) NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NULL,
		UNIQUE KEY ux_customers_email (email)
	) ENGINE=InnoDB`},
	{"products", `
	CREATE TABLE IF NOT EXISTS products (
		id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		description VARCHAR(500) NULL,
		price DECIMAL(18,2) NOT NULL,
		stock_quantity INT NOT NULL DEFAULT 0,
		sku VARCHAR(50) NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NULL,
		UNIQUE KEY ux_products_sku (sku),
		CONSTRAINT chk_products_stock CHECK (stock_quantity >= 0)
	) ENGINE=InnoDB`},
	{"orders", `
	CREATE TABLE IF NOT EXISTS orders (
		id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		customer_id INT NOT NULL,
		order_number VARCHAR(32) NOT NULL,
		order_date DATETIME(6) NOT NULL,
		total_amount DECIMAL(18,2) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'Pending',
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NULL,
		UNIQUE KEY ux_orders_order_number (order_number),
		INDEX idx_orders_customer (customer_id),
		CONSTRAINT fk_orders_customer FOREIGN KEY (customer_id)
			REFERENCES customers(id) ON DELETE RESTRICT
	) ENGINE=InnoDB`},
	{"order_items", `
	CREATE TABLE IF NOT EXISTS order_items (
		id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		order_id INT NOT NULL,
		product_id INT NOT NULL,
		quantity INT NOT NULL,
		unit_price DECIMAL(18,2) NOT NULL,
		subtotal DECIMAL(18,2) NOT NULL,
		INDEX idx_order_items_order (order_id),
		INDEX idx_order_items_product (product_id),
		CONSTRAINT fk_order_items_order FOREIGN KEY (order_id)
			REFERENCES orders(id) ON DELETE CASCADE,
		CONSTRAINT fk_order_items_product FOREIGN KEY (product_id)
			REFERENCES products(id) ON DELETE RESTRICT,
		CONSTRAINT chk_order_items_quantity CHECK (quantity >= 1)
	) ENGINE=InnoDB`},
	{"users", `
	CREATE TABLE IF NOT EXISTS users (
		id CHAR(36) NOT NULL PRIMARY KEY,
		email VARCHAR(256) NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY ux_users_email (email)
	) ENGINE=InnoDB`},
	{"user_roles", `
	CREATE TABLE IF NOT EXISTS user_roles (
		user_id CHAR(36) NOT NULL,
		role VARCHAR(50) NOT NULL,
		PRIMARY KEY (user_id, role),
		CONSTRAINT fk_user_roles_user FOREIGN KEY (user_id)
			REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB`},
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for _, tbl := range schema {
		if _, err := db.ExecContext(ctx, tbl.query); err != nil {
			return fmt.Errorf("creating table %s: %w", tbl.name, err)
		}
	}
	return nil
}

// Tables lists the managed tables, parents first.
func Tables() []string {
	names := make([]string, len(schema))
	for i, tbl := range schema {
		names[i] = tbl.name
	}
	return names
}
