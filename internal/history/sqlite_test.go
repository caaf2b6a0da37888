package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func ruleRecord(id string) *Record {
	return &Record{
		CorrelationID: id,
		Mode:          domain.ModeRuleBased,
		LabData:       map[domain.TestName]float64{domain.TSH: 5.2},
		ThyroidStatus: string(domain.SubclinicalHypo),
		Confidence:    0.65,
	}
}

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "history.db")

	store, err := NewSQLiteStore(dbPath)

	require.NoError(t, err)
	defer store.Close()
	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("")

	var validationErr *domain.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	rec := &Record{
		CorrelationID: "req-1",
		Mode:          domain.ModeLiterature,
		LabData:       map[domain.TestName]float64{domain.TSH: 0.1, domain.FreeT4: 2.0},
		PatternID:     "2.2.1",
		Confidence:    0.5,
	}
	require.NoError(t, store.Save(ctx, rec))
	assert.NotZero(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := store.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, domain.ModeLiterature, got.Mode)
	assert.Equal(t, rec.LabData, got.LabData)
	assert.Equal(t, "2.2.1", got.PatternID)
	assert.Empty(t, got.ThyroidStatus)
	assert.Equal(t, 0.5, got.Confidence)
}

func TestSQLiteStore_SaveReplacesByCorrelationID(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	first := ruleRecord("req-1")
	require.NoError(t, store.Save(ctx, first))

	second := ruleRecord("req-1")
	second.ThyroidStatus = string(domain.Hypothyroid)
	second.Confidence = 0.8
	require.NoError(t, store.Save(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := store.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, string(domain.Hypothyroid), got.ThyroidStatus)
	assert.Equal(t, 0.8, got.Confidence)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_SaveRequiresCorrelationID(t *testing.T) {
	store := createTestStore(t)

	err := store.Save(context.Background(), ruleRecord(""))

	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "correlation_id", validationErr.Field)
}

func TestSQLiteStore_List(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Save(ctx, ruleRecord(fmt.Sprintf("req-%d", i))))
	}

	t.Run("newest first", func(t *testing.T) {
		records, err := store.List(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "req-5", records[0].CorrelationID)
		assert.Equal(t, "req-4", records[1].CorrelationID)
	})

	t.Run("offset", func(t *testing.T) {
		records, err := store.List(ctx, 2, 4)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "req-1", records[0].CorrelationID)
	})

	t.Run("default limit", func(t *testing.T) {
		records, err := store.List(ctx, 0, 0)
		require.NoError(t, err)
		assert.Len(t, records, 5)
	})
}

func TestSQLiteStore_ExportJSON(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, ruleRecord("req-1")))
	require.NoError(t, store.Save(ctx, ruleRecord("req-2")))

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &buf))

	var export Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	assert.Equal(t, "1.0", export.Version)
	assert.Equal(t, 2, export.Count)
	require.Len(t, export.Records, 2)
	assert.Equal(t, 5.2, export.Records[0].LabData[domain.TSH])
}

func TestSQLiteStore_ExportJSONEmpty(t *testing.T) {
	store := createTestStore(t)

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(context.Background(), &buf))

	assert.Contains(t, buf.String(), `"records": []`)
}

func TestOpen(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		store, err := Open(domain.HistoryConfig{Driver: "none"})
		require.NoError(t, err)
		assert.Nil(t, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		store, err := Open(domain.HistoryConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "h.db")})
		require.NoError(t, err)
		require.NotNil(t, store)
		assert.NoError(t, store.Close())
	})

	t.Run("postgres without URL", func(t *testing.T) {
		store, err := Open(domain.HistoryConfig{Driver: "postgres"})
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(domain.HistoryConfig{Driver: "mongo"})
		assert.Error(t, err)
	})
}
