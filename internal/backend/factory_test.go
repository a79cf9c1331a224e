package backend

import (
	"context"
	"path/filepath"
	"testing"

	"expensetracker/internal/config"
	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "gorm", GormDBPath: "x.db", LogLevel: "DEBUG"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != GormBackend || cfg.GormDBPath != "x.db" || !cfg.GormVerbose {
		t.Errorf("unexpected backend config %+v", cfg)
	}
}

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "a.db")}, false},
		{"gorm", Config{Type: GormBackend, GormDBPath: filepath.Join(dir, "b.db")}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}

	f := NewFactory(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Cleanup != nil {
				defer res.Cleanup()
			}

			ctx := context.Background()
			saved, err := res.Store.Insert(ctx, core.Expense{
				Amount: core.Money{Cents: 100}, Category: "Food", PaymentMethod: core.Cash,
			})
			if err != nil {
				t.Fatalf("insert: %v", err)
			}
			all, err := res.Store.FetchAll(ctx, store.FetchOptions{})
			if err != nil || len(all) != 1 || all[0].ID != saved.ID {
				t.Fatalf("unexpected fetch %+v err=%v", all, err)
			}
		})
	}
}
