package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	mysqlinfra "minierp/internal/infrastructure/mysql"
)

// SetupTestDB configura una base de datos de prueba.
// Usa TEST_MYSQL_DSN o, por defecto, una BD MySQL en localhost:3306 llamada
// 'minierp_test'. El test se salta si la BD no responde.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		dsn = "root:@tcp(localhost:3306)/minierp_test?parseTime=true&loc=UTC&clientFoundRows=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// SetupTestTables crea las tablas necesarias para los tests.
func SetupTestTables(t *testing.T, db *sql.DB) {
	t.Helper()

	if err := mysqlinfra.Migrate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	truncate(t, db)
}

// CleanupTestDB limpia la BD de prueba y cierra la conexión.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}
	truncate(t, db)
	db.Close()
}

func truncate(t *testing.T, db *sql.DB) {
	tables := mysqlinfra.Tables()
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", tables[i])); err != nil {
			t.Logf("failed to clean table %s: %v", tables[i], err)
		}
	}
}

func InsertCustomer(t *testing.T, db *sql.DB, firstName, lastName, email string) int {
	t.Helper()

	result, err := db.Exec(`
		INSERT INTO customers (first_name, last_name, email, created_at)
		VALUES (?, ?, ?, ?)`, firstName, lastName, email, time.Now().UTC())
	if err != nil {
		t.Fatalf("failed to insert customer: %v", err)
	}
	id, _ := result.LastInsertId()
	return int(id)
}

func InsertProduct(t *testing.T, db *sql.DB, name string, price string, stock int) int {
	t.Helper()

	result, err := db.Exec(`
		INSERT INTO products (name, price, stock_quantity, created_at)
		VALUES (?, ?, ?, ?)`, name, decimal.RequireFromString(price), stock, time.Now().UTC())
	if err != nil {
		t.Fatalf("failed to insert product: %v", err)
	}
	id, _ := result.LastInsertId()
	return int(id)
}

func ProductStock(t *testing.T, db *sql.DB, productID int) int {
	t.Helper()

	var stock int
	if err := db.QueryRow(`SELECT stock_quantity FROM products WHERE id = ?`, productID).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return stock
}

func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}
