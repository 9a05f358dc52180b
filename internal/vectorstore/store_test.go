package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/txnchat/internal/models"
	"github.com/finsight/txnchat/internal/txnerrors"
)

const testDimensions = 4

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:", "transactions", testDimensions)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func testTransaction(id int64) models.Transaction {
	return models.Transaction{
		ID:       id,
		Customer: "Amit",
		Product:  "Laptop",
		Amount:   55000,
		Date:     "2024-01-12",
	}
}

func TestOpenValidation(t *testing.T) {
	t.Run("rejects invalid collection name", func(t *testing.T) {
		_, err := Open(":memory:", "transactions; DROP TABLE x", testDimensions)
		assert.ErrorIs(t, err, ErrInvalidCollectionName)
	})

	t.Run("rejects non-positive dimensions", func(t *testing.T) {
		_, err := Open(":memory:", "transactions", 0)
		assert.Error(t, err)
	})
}

func TestUpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Upsert(ctx, testTransaction(1), "laptop purchase", []float32{1, 0, 0, 0}))
	require.NoError(t, s.Upsert(ctx, models.Transaction{
		ID: 2, Customer: "Riya", Product: "Headphones", Amount: 2500, Date: "2024-03-02",
	}, "headphones purchase", []float32{0, 1, 0, 0}))

	results, err := s.Query(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Identical vector first, orthogonal vector second.
	assert.Equal(t, int64(1), results[0].Transaction.ID)
	assert.Equal(t, "laptop purchase", results[0].Description)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)

	assert.Equal(t, int64(2), results[1].Transaction.ID)
	assert.InDelta(t, 0.0, results[1].Score, 1e-6)

	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestQueryReturnsAtMostK(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, s.Upsert(ctx, testTransaction(i), "doc", []float32{1, float32(i), 0, 0}))
	}

	results, err := s.Query(ctx, []float32{1, 0, 0, 0}, 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestQuerySmallCollection(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Upsert(ctx, testTransaction(1), "only doc", []float32{1, 0, 0, 0}))

	// k larger than the collection returns every stored document.
	results, err := s.Query(ctx, []float32{1, 0, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestQueryEmptyCollection(t *testing.T) {
	s := openTestStore(t)

	results, err := s.Query(context.Background(), []float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryInvalidTopK(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Query(context.Background(), []float32{1, 0, 0, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidTopK)
}

func TestDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.Upsert(ctx, testTransaction(1), "doc", []float32{1, 0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = s.Query(ctx, []float32{1, 0}, 5)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	txn := testTransaction(1)

	require.NoError(t, s.Upsert(ctx, txn, "first description", []float32{1, 0, 0, 0}))
	require.NoError(t, s.Upsert(ctx, txn, "second description", []float32{0, 1, 0, 0}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := s.Query(ctx, []float32{0, 1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// The replacement wins, including its embedding.
	assert.Equal(t, "second description", results[0].Description)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, s.Upsert(ctx, testTransaction(1), "doc", []float32{1, 0, 0, 0}))
	require.NoError(t, s.Upsert(ctx, testTransaction(2), "doc", []float32{0, 1, 0, 0}))

	count, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "txnchat.db")

	s, err := Open(path, "transactions", testDimensions)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, testTransaction(1), "persisted doc", []float32{1, 0, 0, 0}))
	require.NoError(t, s.Close())

	reopened, err := Open(path, "transactions", testDimensions)
	require.NoError(t, err)
	defer reopened.Close()

	results, err := reopened.Query(ctx, []float32{1, 0, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "persisted doc", results[0].Description)
}

func TestReopenWithDifferentDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txnchat.db")

	s, err := Open(path, "transactions", testDimensions)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path, "transactions", testDimensions+4)
	assert.ErrorIs(t, err, txnerrors.ErrStoreCorrupted)
}
