package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestVersionFromFile(t *testing.T) {
	cases := map[string]int64{
		"001_accounts.up.sql": 1,
		"012_more.up.sql":     12,
	}
	for name, want := range cases {
		got, err := versionFromFile(name)
		if err != nil || got != want {
			t.Errorf("versionFromFile(%q) = %d, %v; want %d", name, got, err, want)
		}
	}

	for _, bad := range []string{"accounts.up.sql", "abc_accounts.up.sql"} {
		if _, err := versionFromFile(bad); err == nil {
			t.Errorf("versionFromFile(%q): expected error", bad)
		}
	}
}

func TestUpMigrations_ordersAndFilters(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"010_later.up.sql",
		"002_second.up.sql",
		"002_second.down.sql",
		"README.md",
		"001_first.up.sql",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := upMigrations(dir)
	if err != nil {
		t.Fatalf("upMigrations: %v", err)
	}

	want := []string{"001_first.up.sql", "002_second.up.sql", "010_later.up.sql"}
	if len(got) != len(want) {
		t.Fatalf("expected %d files, got %+v", len(want), got)
	}
	for i, m := range got {
		if m.name != want[i] {
			t.Errorf("position %d: got %s, want %s", i, m.name, want[i])
		}
	}
}

func TestUpMigrations_duplicateVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"001_a.up.sql", "001_b.up.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := upMigrations(dir); err == nil {
		t.Error("expected duplicate version error")
	}
}

func TestUpMigrations_shippedFiles(t *testing.T) {
	got, err := upMigrations(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("upMigrations: %v", err)
	}
	if len(got) == 0 || got[0].version != 1 {
		t.Errorf("expected shipped migrations starting at version 1, got %+v", got)
	}
}
