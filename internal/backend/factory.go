package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"expensetracker/internal/config"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/gormstore"
	"expensetracker/internal/store/memory"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		GormDBPath:   appConfig.GormDBPath,
		GormVerbose:  strings.EqualFold(appConfig.LogLevel, "debug"),
		SeedFile:     appConfig.SeedFile,
	}, nil
}

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(_ context.Context, cfg Config) (*BackendResult, error) {
	switch cfg.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(cfg)
	case GormBackend:
		return f.createGormBackend(cfg)
	case MemoryBackend:
		return f.createMemoryBackend(cfg)
	default:
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(cfg Config) (*BackendResult, error) {
	if cfg.SQLiteDBPath == "" {
		return nil, fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createGormBackend(cfg Config) (*BackendResult, error) {
	if cfg.GormDBPath == "" {
		return nil, fmt.Errorf("gorm database path is required for gorm backend")
	}
	s, err := gormstore.Open(cfg.GormDBPath, cfg.GormVerbose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm store: %w", err)
	}
	f.logger.Info("Initialized gorm backend", "db_path", cfg.GormDBPath)
	return &BackendResult{Store: s, Cleanup: s.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(cfg Config) (*BackendResult, error) {
	s, err := memory.NewFromFile(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed file: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seed_file", cfg.SeedFile)
	return &BackendResult{Store: s}, nil
}
