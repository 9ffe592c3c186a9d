package shared

import "testing"

func TestMigrations(t *testing.T) {
	t.Run("RunMigrations creates the ledger schema", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='downloads'").Scan(&name)
		if err != nil {
			t.Fatalf("downloads table should exist: %v", err)
		}
	})

	t.Run("RunMigrations is idempotent", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("second run failed: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to count applied migrations: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 applied migration, got %d", count)
		}
	})

	t.Run("loadMigrations orders by version", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if len(migrations) == 0 {
			t.Fatal("expected embedded migrations")
		}
		for i := 1; i < len(migrations); i++ {
			if migrations[i-1].Version >= migrations[i].Version {
				t.Errorf("migrations out of order: %d before %d", migrations[i-1].Version, migrations[i].Version)
			}
		}
	})
}
