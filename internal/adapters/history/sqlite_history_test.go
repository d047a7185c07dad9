package history

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap/zaptest"
)

func TestSQLiteHistory_Insert(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	h, err := NewSQLiteHistory(dbPath, zaptest.NewLogger(t), 0, 0)
	if err != nil {
		t.Fatalf("NewSQLiteHistory failed: %v", err)
	}
	defer h.Stop()

	actor := int64(42)
	records := []*core.HistoryRecord{
		{ActorID: &actor, InputText: "URL: http://phishing.com", Prediction: "Phishing", SourceType: core.SourcePhishing},
		{InputText: "From: a@b.com, Subject: hi", Prediction: "HAM", SourceType: core.SourceEmail},
	}
	for _, record := range records {
		if err := h.Insert(context.Background(), record); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	rows, err := h.db.Query(`SELECT user_id, input_text, prediction, model_type FROM history ORDER BY id`)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()

	var got []struct {
		user       sql.NullInt64
		input      string
		prediction string
		source     string
	}
	for rows.Next() {
		var row struct {
			user       sql.NullInt64
			input      string
			prediction string
			source     string
		}
		if err := rows.Scan(&row.user, &row.input, &row.prediction, &row.source); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		got = append(got, row)
	}

	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if !got[0].user.Valid || got[0].user.Int64 != 42 || got[0].source != core.SourcePhishing {
		t.Errorf("unexpected first row %+v", got[0])
	}
	if got[1].user.Valid {
		t.Error("anonymous records must store a NULL user")
	}
	if got[1].prediction != "HAM" || got[1].input != "From: a@b.com, Subject: hi" {
		t.Errorf("unexpected second row %+v", got[1])
	}
}

func TestSQLiteHistory_Cleanup(t *testing.T) {
	h, err := NewSQLiteHistory(filepath.Join(t.TempDir(), "history.db"), zaptest.NewLogger(t), 24*time.Hour, 0)
	if err != nil {
		t.Fatalf("NewSQLiteHistory failed: %v", err)
	}
	defer h.Stop()

	ctx := context.Background()
	old := &core.HistoryRecord{InputText: "old", Prediction: "HAM", SourceType: core.SourceEmail, CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := &core.HistoryRecord{InputText: "fresh", Prediction: "SPAM", SourceType: core.SourceEmail}
	for _, record := range []*core.HistoryRecord{old, fresh} {
		if err := h.Insert(ctx, record); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	if err := h.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	var count int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM history`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("got %d rows after cleanup, want 1", count)
	}
}

func TestNoopHistory(t *testing.T) {
	var repo core.HistoryRepository = NewNoopHistory()
	if err := repo.Insert(context.Background(), &core.HistoryRecord{}); err != nil {
		t.Errorf("Insert returned %v", err)
	}
}
