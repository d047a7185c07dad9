package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/phishguard/internal/adapters/history"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

// HistoryStore is a history repository with a background cleanup task
type HistoryStore interface {
	core.HistoryRepository
	Stop()
}

// HistoryFactory creates history repositories based on configuration
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// Type returns the configured history store type
func (f *HistoryFactory) Type() string {
	if t := f.cfg.GetHistory().Type; t != "" {
		return t
	}
	return "none"
}

// CreateHistoryStore creates a history store based on the configuration
func (f *HistoryFactory) CreateHistoryStore() (HistoryStore, error) {
	historyCfg := f.cfg.GetHistory()

	switch historyCfg.Type {
	case "", "none":
		return history.NewNoopHistory(), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(historyCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		store, err := history.NewSQLiteHistory(historyCfg.SQLitePath, f.logger, historyCfg.Retention, historyCfg.CleanupFrequency)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "mysql":
		store, err := history.NewMySQLHistory(historyCfg.MySQLDSN, f.logger, historyCfg.Retention, historyCfg.CleanupFrequency)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported history type: %s", historyCfg.Type)
	}
}
