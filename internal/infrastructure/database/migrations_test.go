package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
)

func useMigrations(t *testing.T, files fstest.MapFS) {
	t.Helper()
	sourceMu.RLock()
	origFS, origDir := sourceFS, sourceDir
	sourceMu.RUnlock()
	RegisterMigrations(files, "sql")
	t.Cleanup(func() { RegisterMigrations(origFS, origDir) })
}

func testSource() fstest.MapFS {
	return fstest.MapFS{
		"sql/20260301_090000_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);")},
		"sql/20260301_090000_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
		"sql/20260302_090000_gadgets.up.sql":   {Data: []byte("CREATE TABLE gadgets (id INTEGER PRIMARY KEY);")},
		"sql/README.md":                        {Data: []byte("ignored")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n); err != nil {
		t.Fatalf("sqlite_master: %v", err)
	}
	return n == 1
}

func TestMigrate(t *testing.T) {
	useMigrations(t, testSource())
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "widgets") || !tableExists(t, db, "gadgets") {
		t.Fatal("expected widgets and gadgets tables")
	}

	applied, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("applied=%d pending=%d, want 2/0", len(applied), len(pending))
	}
	if applied[0].Version != "20260301_090000" {
		t.Errorf("first applied = %q", applied[0].Version)
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrate_FailureStopsAtBrokenStep(t *testing.T) {
	src := testSource()
	src["sql/20260302_090000_gadgets.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE nope (")}
	useMigrations(t, src)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err == nil {
		t.Fatal("Migrate() error = nil, want failure")
	}
	if !tableExists(t, db, "widgets") {
		t.Error("earlier migration should stay applied")
	}
	_, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending = %d, want 1", len(pending))
	}
}

func TestMigrateDown(t *testing.T) {
	src := testSource()
	delete(src, "sql/20260302_090000_gadgets.up.sql")
	useMigrations(t, src)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if tableExists(t, db, "widgets") {
		t.Error("widgets should be dropped")
	}
	// Nothing left to roll back.
	if err := db.MigrateDown(ctx); err != nil {
		t.Errorf("MigrateDown() on empty = %v", err)
	}
}

func TestMigrateDown_NoDownSQL(t *testing.T) {
	useMigrations(t, testSource())
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx); !errors.Is(err, ErrNoDownMigration) {
		t.Errorf("MigrateDown() error = %v, want ErrNoDownMigration", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		in      string
		version string
		name    string
		up      bool
		ok      bool
	}{
		{"20260301_090000_rooms.up.sql", "20260301_090000", "rooms", true, true},
		{"20260301_090000_rule_tables.down.sql", "20260301_090000", "rule_tables", false, true},
		{"20260301_090000.up.sql", "20260301_090000", "", true, true},
		{"20260301.up.sql", "", "", false, false},
		{"20260301_090000_rooms.sql", "", "", false, false},
		{"notes.txt", "", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			version, name, up, ok := parseMigrationFilename(tt.in)
			if version != tt.version || name != tt.name || up != tt.up || ok != tt.ok {
				t.Errorf("parseMigrationFilename(%q) = %q, %q, %v, %v; want %q, %q, %v, %v",
					tt.in, version, name, up, ok, tt.version, tt.name, tt.up, tt.ok)
			}
		})
	}
}
