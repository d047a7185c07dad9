package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

// SQLiteHistory is a SQLite implementation of the HistoryRepository interface
type SQLiteHistory struct {
	db          *sql.DB
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteHistory opens the history database at dbPath. When retention is
// positive, records older than it are pruned every cleanupFreq.
func NewSQLiteHistory(dbPath string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER,
			input_text TEXT,
			prediction TEXT,
			model_type TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	h := &SQLiteHistory{
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
func (h *SQLiteHistory) Insert(ctx context.Context, record *core.HistoryRecord) error {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO history (user_id, input_text, prediction, model_type, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, nullableActor(record.ActorID), record.InputText, record.Prediction, record.SourceType,
		createdAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}

	h.logger.Debug("Recorded history entry",
		zap.String("source", record.SourceType),
		zap.String("prediction", record.Prediction))
	return nil
}

// Cleanup removes records older than the retention period
func (h *SQLiteHistory) Cleanup(ctx context.Context) error {
	cutoff := time.Now().Add(-h.retention).UTC().Format("2006-01-02 15:04:05")
	result, err := h.db.ExecContext(ctx, `
		DELETE FROM history
		WHERE timestamp < ?
	`, cutoff)
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

func (h *SQLiteHistory) startCleanupTask() {
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
func (h *SQLiteHistory) Stop() {
	close(h.stopCh)
	if err := h.db.Close(); err != nil {
		h.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}

func nullableActor(actorID *int64) sql.NullInt64 {
	if actorID == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *actorID, Valid: true}
}
