package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("Glob error: %v", err)
	}
	if len(names) == 0 {
		t.Fatalf("no migrations embedded")
	}
	for _, name := range names {
		b, err := fs.ReadFile(FS, name)
		if err != nil {
			t.Fatalf("ReadFile(%s) error: %v", name, err)
		}
		sql := string(b)
		if !strings.Contains(sql, "-- +goose Up") || !strings.Contains(sql, "-- +goose Down") {
			t.Fatalf("%s lacks goose markers", name)
		}
	}
}
