package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"order_number TEXT NOT NULL",
		"status TEXT NOT NULL DEFAULT 'PAYMENT_PENDING'",
		"payment_status TEXT NOT NULL DEFAULT 'PENDING'",
		"return_status TEXT NOT NULL DEFAULT 'NONE'",
		"FOREIGN KEY (customer_id) REFERENCES customers(id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS orders_order_number_key",
		"orders_one_pending_per_customer_key ON orders (customer_id) WHERE status = 'PAYMENT_PENDING'",
		"CREATE INDEX IF NOT EXISTS orders_shipping_carrier_order_id_idx",
		"DROP TABLE IF EXISTS orders",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestVariantsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_product_variants.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS product_variants",
		"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE",
		"CHECK (stock >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS product_variants_sku_key",
		"DROP TABLE IF EXISTS product_variants",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCartMigrationEnforcesOneRowPerVariant(t *testing.T) {
	content := readMigration(t, "*_create_cart_items.sql")

	if !strings.Contains(content, "cart_items_customer_variant_key ON cart_items (customer_id, variant_id)") {
		t.Error("missing unique customer+variant index")
	}
	if !strings.Contains(content, "CHECK (quantity > 0)") {
		t.Error("missing positive quantity check")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %s", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
