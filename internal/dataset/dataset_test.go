package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/txnchat/internal/models"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "transactions.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("loads valid dataset", func(t *testing.T) {
		path := writeDataset(t, `[
			{"id": 1, "customer": "Amit", "product": "Laptop", "amount": 55000, "date": "2024-01-12"},
			{"id": 2, "customer": "Riya", "product": "Headphones", "amount": 2500, "date": "2024-03-02"}
		]`)

		records, err := Load(path)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, int64(1), records[0].ID)
		assert.Equal(t, "Amit", records[0].Customer)
		assert.Equal(t, "Laptop", records[0].Product)
		assert.Equal(t, 55000.0, records[0].Amount)
		assert.Equal(t, "2024-01-12", records[0].Date)
	})

	t.Run("empty array is a valid dataset", func(t *testing.T) {
		path := writeDataset(t, `[]`)

		records, err := Load(path)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed JSON is an error", func(t *testing.T) {
		path := writeDataset(t, `{"not": "an array"`)

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestDescribe(t *testing.T) {
	txn := models.Transaction{
		ID:       1,
		Customer: "Amit",
		Product:  "Laptop",
		Amount:   55000,
		Date:     "2024-01-12",
	}

	got := Describe(txn)
	want := "Transaction ID 1: On 2024-01-12, Amit purchased a Laptop for ₹55000. " +
		"Customer: Amit, Product: Laptop, Amount: 55000, Date: 2024-01-12."

	assert.Equal(t, want, got)
}

func TestDescribeFractionalAmount(t *testing.T) {
	txn := models.Transaction{
		ID:       7,
		Customer: "Riya",
		Product:  "Cable",
		Amount:   249.5,
		Date:     "2024-04-01",
	}

	got := Describe(txn)
	assert.Contains(t, got, "₹249.5.")
	assert.NotContains(t, got, "249.50")
}

func TestDescribeIsDeterministic(t *testing.T) {
	txn := models.Transaction{ID: 3, Customer: "Rohit", Product: "Monitor", Amount: 12000, Date: "2024-02-20"}

	assert.Equal(t, Describe(txn), Describe(txn))
}

func TestBuildDocuments(t *testing.T) {
	t.Run("one document per record", func(t *testing.T) {
		records := []models.Transaction{
			{ID: 1, Customer: "Amit", Product: "Laptop", Amount: 55000, Date: "2024-01-12"},
			{ID: 2, Customer: "Riya", Product: "Headphones", Amount: 2500, Date: "2024-03-02"},
		}

		docs := BuildDocuments(records)
		require.Len(t, docs, 2)

		assert.Equal(t, records[0], docs[0].Transaction)
		assert.Equal(t, Describe(records[0]), docs[0].Description)
		assert.Equal(t, records[1], docs[1].Transaction)
		assert.Equal(t, Describe(records[1]), docs[1].Description)
	})

	t.Run("empty record set yields empty non-nil result", func(t *testing.T) {
		docs := BuildDocuments(nil)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})
}
