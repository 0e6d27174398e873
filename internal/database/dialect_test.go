package database

import (
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("RewriteQuery leaves placeholders alone", func(t *testing.T) {
		query := "SELECT * FROM children WHERE jar_id = ? AND parent_id = ?"
		if got := dialect.RewriteQuery(query); got != query {
			t.Errorf("RewriteQuery() = %v, want unchanged", got)
		}
	})

	t.Run("IsUniqueViolation", func(t *testing.T) {
		constraintErr := sqlite3.Error{Code: sqlite3.ErrConstraint}
		if !dialect.IsUniqueViolation(constraintErr) {
			t.Error("IsUniqueViolation() should be true for constraint errors")
		}
		if dialect.IsUniqueViolation(errors.New("something else")) {
			t.Error("IsUniqueViolation() should be false for unrelated errors")
		}
		if dialect.IsUniqueViolation(nil) {
			t.Error("IsUniqueViolation() should be false for nil")
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "postgres"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("RewriteQuery numbers placeholders", func(t *testing.T) {
		query := "SELECT * FROM children WHERE jar_id = ? AND parent_id = ?"
		expected := "SELECT * FROM children WHERE jar_id = $1 AND parent_id = $2"
		if got := dialect.RewriteQuery(query); got != expected {
			t.Errorf("RewriteQuery() = %v, want %v", got, expected)
		}
	})

	t.Run("IsUniqueViolation", func(t *testing.T) {
		uniqueErr := &pq.Error{Code: "23505"}
		if !dialect.IsUniqueViolation(uniqueErr) {
			t.Error("IsUniqueViolation() should be true for 23505")
		}
		otherErr := &pq.Error{Code: "23503"}
		if dialect.IsUniqueViolation(otherErr) {
			t.Error("IsUniqueViolation() should be false for other pq codes")
		}
		if dialect.IsUniqueViolation(errors.New("something else")) {
			t.Error("IsUniqueViolation() should be false for unrelated errors")
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for MySQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "mysql"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("IsUniqueViolation", func(t *testing.T) {
		dupErr := &mysql.MySQLError{Number: 1062}
		if !dialect.IsUniqueViolation(dupErr) {
			t.Error("IsUniqueViolation() should be true for 1062")
		}
		otherErr := &mysql.MySQLError{Number: 1451}
		if dialect.IsUniqueViolation(otherErr) {
			t.Error("IsUniqueViolation() should be false for other mysql errors")
		}
	})
}
