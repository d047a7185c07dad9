package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

// MySQLHistory is a MySQL implementation of the HistoryRepository interface
type MySQLHistory struct {
	db          *sql.DB
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLHistory connects to the history database
func NewMySQLHistory(dsn string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*MySQLHistory, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NULL,
			input_text TEXT,
			prediction VARCHAR(32),
			model_type VARCHAR(32),
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_history_timestamp (timestamp)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	h := &MySQLHistory{
		db:          db,
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if retention > 0 && cleanupFreq > 0 {
		go h.startCleanupTask()
	}

	return h, nil
}

// Insert appends a record to the history table
func (h *MySQLHistory) Insert(ctx context.Context, record *core.HistoryRecord) error {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO history (user_id, input_text, prediction, model_type, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, nullableActor(record.ActorID), record.InputText, record.Prediction, record.SourceType, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}

	return nil
}

// Cleanup removes records older than the retention period
func (h *MySQLHistory) Cleanup(ctx context.Context) error {
	result, err := h.db.ExecContext(ctx, `
		DELETE FROM history
		WHERE timestamp < ?
	`, time.Now().Add(-h.retention).UTC())
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		h.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		h.logger.Debug("Pruned history records", zap.Int64("pruned_count", rowsAffected))
	}

	return nil
}

func (h *MySQLHistory) startCleanupTask() {
	ticker := time.NewTicker(h.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := h.Cleanup(context.Background()); err != nil {
				h.logger.Error("Failed to prune history", zap.Error(err))
			}
		case <-h.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (h *MySQLHistory) Stop() {
	close(h.stopCh)
	if err := h.db.Close(); err != nil {
		h.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
