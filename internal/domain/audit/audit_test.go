package audit

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

type captureExecer struct {
	sql  string
	args []any
	err  error
}

func (c *captureExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql = sql
	c.args = args
	return pgconn.CommandTag{}, c.err
}

func TestRecordInWritesEntry(t *testing.T) {
	rec := NewRecorder(nil, slog.New(slog.DiscardHandler))
	exec := &captureExecer{}

	userID := "u-1"
	err := rec.RecordIn(context.Background(), exec, "org-1", &userID,
		ActionInviteAccepted, map[string]any{"email": "asha@example.com"})
	if err != nil {
		t.Fatalf("RecordIn: %v", err)
	}
	if len(exec.args) != 6 {
		t.Fatalf("args = %d, want 6", len(exec.args))
	}
	if exec.args[0] != "org-1" || exec.args[2] != ActionInviteAccepted {
		t.Fatalf("args = %v", exec.args)
	}
	if string(exec.args[3].([]byte)) != `{"email":"asha@example.com"}` {
		t.Fatalf("metadata = %s", exec.args[3])
	}
}

func TestRecordInPropagatesWriteError(t *testing.T) {
	rec := NewRecorder(nil, slog.New(slog.DiscardHandler))
	exec := &captureExecer{err: errors.New("deadlock")}

	err := rec.RecordIn(context.Background(), exec, "org-1", nil, ActionLogin, nil)
	if err == nil {
		t.Fatal("want error from failed insert")
	}
}
