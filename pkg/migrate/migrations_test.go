package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stockroomhq/stockroom-backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestInventoryMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_inventory_items.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS inventory_items",
		"CHECK (on_hand_qty >= 0)",
		"ux_inventory_items_sku",
		"DROP TABLE IF EXISTS inventory_items",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReservationsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_reservations.sql")

	checks := []string{
		"CREATE TYPE reservation_status_enum AS ENUM ('PENDING', 'FULFILLED', 'CANCELLED', 'EXPIRED')",
		"status reservation_status_enum NOT NULL DEFAULT 'PENDING'",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_reservations_order_sku ON reservations (order_number, sku_code)",
		"CHECK (reserved_qty >= 0)",
		"DROP TYPE IF EXISTS reservation_status_enum",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TYPE order_status_enum AS ENUM ('PLACED', 'FULFILLED', 'CANCELLED')",
		"status order_status_enum NOT NULL DEFAULT 'PLACED'",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_order_number",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (qty > 0)",
		"DROP TYPE IF EXISTS order_status_enum",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
