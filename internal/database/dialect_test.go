package database

import (
	"testing"

	"studycards/internal/config"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "sqlite3" {
			t.Errorf("DriverName() = %v, want sqlite3", got)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if got := dialect.MigrationsSubdir(); got != "sqlite" {
			t.Errorf("MigrationsSubdir() = %v, want sqlite", got)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	tests := []struct {
		name    string
		dialect *PostgresDialect
		driver  string
	}{
		{name: "lib/pq", dialect: NewPostgresDialect(), driver: "postgres"},
		{name: "pgx", dialect: NewPgxDialect(), driver: "pgx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %v, want %v", got, tt.driver)
			}
			if tt.dialect.SupportsLastInsertId() {
				t.Error("SupportsLastInsertId() should return false for PostgreSQL")
			}
			if got := tt.dialect.MigrationsSubdir(); got != "postgres" {
				t.Errorf("MigrationsSubdir() = %v, want postgres", got)
			}
		})
	}
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "mysql" {
			t.Errorf("DriverName() = %v, want mysql", got)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for MySQL")
		}
	})

	t.Run("DSN adds parseTime", func(t *testing.T) {
		tests := []struct {
			url  string
			want string
		}{
			{url: "user:pw@tcp(db:3306)/cards", want: "user:pw@tcp(db:3306)/cards?parseTime=true"},
			{url: "user:pw@tcp(db:3306)/cards?charset=utf8mb4", want: "user:pw@tcp(db:3306)/cards?charset=utf8mb4&parseTime=true"},
			{url: "user:pw@tcp(db:3306)/cards?parseTime=false", want: "user:pw@tcp(db:3306)/cards?parseTime=false"},
		}
		for _, tt := range tests {
			if got := dialect.DSN(DialectConfig{URL: tt.url}); got != tt.want {
				t.Errorf("DSN(%q) = %q, want %q", tt.url, got, tt.want)
			}
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM users WHERE id = ?",
			expected: "SELECT * FROM users WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM users WHERE id = ?",
			expected: "SELECT * FROM users WHERE id = $1",
		},
		{
			name:     "pgx multiple placeholders",
			dialect:  NewPgxDialect(),
			query:    "INSERT INTO chapter_scores (user_id, chapter, question_index, score) VALUES (?, ?, ?, ?)",
			expected: "INSERT INTO chapter_scores (user_id, chapter, question_index, score) VALUES ($1, $2, $3, $4)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE users SET identity = ? WHERE id = ?",
			expected: "UPDATE users SET identity = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.dialect.RewriteQuery(tt.query); result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		dbType  string
		driver  string
		wantErr bool
	}{
		{dbType: "", driver: "sqlite3"},
		{dbType: "SQLite", driver: "sqlite3"},
		{dbType: "postgresql", driver: "postgres"},
		{dbType: "pgx", driver: "pgx"},
		{dbType: "mysql", driver: "mysql"},
		{dbType: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			dialect, _, err := dialectFor(&config.Config{DatabaseType: tt.dbType})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unsupported type")
				}
				return
			}
			if err != nil {
				t.Fatalf("dialectFor() error = %v", err)
			}
			if dialect.DriverName() != tt.driver {
				t.Errorf("driver = %s, want %s", dialect.DriverName(), tt.driver)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (x INT);\n\n  CREATE INDEX i ON a(x);\n")
	if len(got) != 2 {
		t.Fatalf("splitStatements() returned %d statements, want 2: %q", len(got), got)
	}
	if got[1] != "CREATE INDEX i ON a(x)" {
		t.Errorf("second statement = %q", got[1])
	}
}
