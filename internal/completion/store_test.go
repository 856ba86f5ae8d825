package completion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSaveLoadNoopWhenMongoURIEmpty(t *testing.T) {
	rec := NewRecord("r1", "alice@example.com", "Alice", nil)
	require.NoError(t, Save(context.Background(), "", "", rec))

	got, err := Load(context.Background(), "", "", "r1")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestNewRecordDefaults(t *testing.T) {
	rec := NewRecord("r1", "alice@example.com", "Alice", nil)
	require.NotEmpty(t, rec.ID)
	require.Equal(t, "completed", rec.Status)
	require.WithinDuration(t, time.Now(), rec.CompletedAt, time.Second)

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rec = NewRecord("r1", "", "", &at)
	require.Equal(t, at, rec.CompletedAt)
}
