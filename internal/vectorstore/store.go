// Package vectorstore wraps a sqlite-vec collection persisted on local disk.
// One row per transaction in the records table, one embedding per transaction
// in the vec0 virtual table; nearest-neighbor search is delegated to
// sqlite-vec's cosine distance.
package vectorstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"

	"github.com/finsight/txnchat/internal/models"
	"github.com/finsight/txnchat/internal/txnerrors"
)

var (
	// ErrInvalidTopK is returned when Query is called with a non-positive k.
	ErrInvalidTopK = errors.New("vectorstore: k must be positive")
	// ErrDimensionMismatch is returned when an embedding's length does not
	// match the collection's fixed dimension. Retrieval over mixed dimensions
	// is undefined, so the insert fails explicitly.
	ErrDimensionMismatch = errors.New("vectorstore: embedding dimension mismatch")
	// ErrInvalidCollectionName is returned when the collection name is not a
	// plain SQL identifier.
	ErrInvalidCollectionName = errors.New("vectorstore: collection name must match [A-Za-z_][A-Za-z0-9_]*")
)

var collectionNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const metaDimensionsKey = "dimensions"

// Store is an open vector collection. Safe for concurrent reads; writers
// (Upsert) are expected to be serialized by the caller.
type Store struct {
	db         *sql.DB
	collection string
	dimensions int

	recordsTable string
	vecTable     string
	metaTable    string
}

// Open opens (or creates) the collection at path. The dimension is fixed for
// the collection's lifetime: reopening with a different dimension than the one
// persisted returns a StoreCorruptedError and requires re-ingestion into a
// fresh path. Use ":memory:" for an ephemeral store in tests.
func Open(path, collection string, dimensions int) (*Store, error) {
	if !collectionNameRegex.MatchString(collection) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollectionName, collection)
	}

	if dimensions <= 0 {
		return nil, fmt.Errorf("vectorstore: dimensions must be positive, got %d", dimensions)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()

		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	s := &Store{
		db:         db,
		collection: collection,
		dimensions: dimensions,

		recordsTable: collection + "_records",
		vecTable:     collection + "_vec",
		metaTable:    collection + "_meta",
	}

	if err := s.migrate(); err != nil {
		db.Close()

		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
    id INTEGER PRIMARY KEY,
    customer TEXT NOT NULL,
    product TEXT NOT NULL,
    amount REAL NOT NULL,
    date TEXT NOT NULL,
    description TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS %[2]s (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`, s.recordsTable, s.metaTable)

	if _, err := s.db.Exec(schema); err != nil {
		return txnerrors.NewStoreCorruptedError("apply collection schema", err)
	}

	vecSchema := fmt.Sprintf(`
CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(
    record_id INTEGER PRIMARY KEY,
    embedding FLOAT[%d] distance_metric=cosine
);
`, s.vecTable, s.dimensions)

	if _, err := s.db.Exec(vecSchema); err != nil {
		return txnerrors.NewStoreCorruptedError("apply vector schema", err)
	}

	return s.checkDimensions()
}

// checkDimensions enforces the uniform-dimension invariant across restarts:
// the first open records the configured dimension, later opens must match it.
func (s *Store) checkDimensions() error {
	var stored string

	query := fmt.Sprintf("SELECT value FROM %s WHERE key = ?", s.metaTable)

	err := s.db.QueryRow(query, metaDimensionsKey).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		insert := fmt.Sprintf("INSERT INTO %s (key, value) VALUES (?, ?)", s.metaTable)
		if _, err := s.db.Exec(insert, metaDimensionsKey, strconv.Itoa(s.dimensions)); err != nil {
			return txnerrors.NewStoreCorruptedError("record collection dimensions", err)
		}

		return nil
	}

	if err != nil {
		return txnerrors.NewStoreCorruptedError("read collection dimensions", err)
	}

	if stored != strconv.Itoa(s.dimensions) {
		return txnerrors.NewStoreCorruptedError(
			fmt.Sprintf("collection %s was ingested with dimension %s, configured %d; re-ingest into a fresh path",
				s.collection, stored, s.dimensions), nil)
	}

	return nil
}

// Upsert inserts or overwrites the embedded document for one transaction,
// keyed by the record id. Re-ingesting the same id replaces both the record
// row and its embedding, so ingestion is idempotent.
func (s *Store) Upsert(ctx context.Context, txn models.Transaction, description string, embedding []float32) error {
	if len(embedding) != s.dimensions {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(embedding), s.dimensions)
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return fmt.Errorf("serialize embedding: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return txnerrors.NewStoreCorruptedError("begin upsert", err)
	}
	defer tx.Rollback()

	upsertRecord := fmt.Sprintf(`
INSERT INTO %s (id, customer, product, amount, date, description)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    customer = excluded.customer,
    product = excluded.product,
    amount = excluded.amount,
    date = excluded.date,
    description = excluded.description
`, s.recordsTable)

	if _, err := tx.ExecContext(ctx, upsertRecord,
		txn.ID, txn.Customer, txn.Product, txn.Amount, txn.Date, description); err != nil {
		return txnerrors.NewStoreCorruptedError("upsert record", err)
	}

	// vec0 has no upsert; delete then insert keeps one embedding per record.
	deleteVec := fmt.Sprintf("DELETE FROM %s WHERE record_id = ?", s.vecTable)
	if _, err := tx.ExecContext(ctx, deleteVec, txn.ID); err != nil {
		return txnerrors.NewStoreCorruptedError("replace embedding", err)
	}

	insertVec := fmt.Sprintf("INSERT INTO %s (record_id, embedding) VALUES (?, ?)", s.vecTable)
	if _, err := tx.ExecContext(ctx, insertVec, txn.ID, blob); err != nil {
		return txnerrors.NewStoreCorruptedError("insert embedding", err)
	}

	if err := tx.Commit(); err != nil {
		return txnerrors.NewStoreCorruptedError("commit upsert", err)
	}

	return nil
}

// Query returns up to k stored documents nearest to the query embedding,
// ordered by non-increasing similarity. An empty collection yields an empty
// result, not an error.
func (s *Store) Query(ctx context.Context, embedding []float32, k int) ([]models.TransactionWithScore, error) {
	if k <= 0 {
		return nil, ErrInvalidTopK
	}

	if len(embedding) != s.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(embedding), s.dimensions)
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	query := fmt.Sprintf(`
SELECT r.id, r.customer, r.product, r.amount, r.date, r.description, v.distance
FROM %s v
JOIN %s r ON v.record_id = r.id
WHERE v.embedding MATCH ? AND k = ?
ORDER BY v.distance
`, s.vecTable, s.recordsTable)

	rows, err := s.db.QueryContext(ctx, query, blob, k)
	if err != nil {
		return nil, txnerrors.NewStoreCorruptedError("nearest-neighbor query", err)
	}
	defer rows.Close()

	results := make([]models.TransactionWithScore, 0, k)

	for rows.Next() {
		var (
			item     models.TransactionWithScore
			distance float64
		)

		if err := rows.Scan(
			&item.Transaction.ID,
			&item.Transaction.Customer,
			&item.Transaction.Product,
			&item.Transaction.Amount,
			&item.Transaction.Date,
			&item.Description,
			&distance,
		); err != nil {
			return nil, txnerrors.NewStoreCorruptedError("scan query result", err)
		}

		// Cosine distance in [0,2]; similarity = 1 - distance.
		item.Score = 1 - distance

		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, txnerrors.NewStoreCorruptedError("iterate query results", err)
	}

	return results, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.recordsTable)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, txnerrors.NewStoreCorruptedError("count records", err)
	}

	return count, nil
}

// Dimensions returns the collection's fixed embedding dimension.
func (s *Store) Dimensions() int {
	return s.dimensions
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}
