package migration

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRunMigrationsIsIdempotent(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}

	if err := RunMigrations(sqlDB); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(sqlDB); err != nil {
		t.Fatalf("second run: %v", err)
	}

	var count int64
	if err := conn.Table("schema_migrations").Count(&count).Error; err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count == 0 {
		t.Fatal("expected at least one applied migration")
	}

	for _, table := range []string{"ports", "subscriptions", "port_allocation_logs", "payment_events"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}
