package badgerfx

import (
	"encoding/json"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (n *note) StorageKey() string              { return "note:id:" + n.ID }
func (n *note) StorageIndexes() []string        { return []string{"note:text:" + n.Text} }
func (n *note) MarshalStorage() ([]byte, error) { return json.Marshal(n) }
func (n *note) UnmarshalStorage(data []byte) error {
	return json.Unmarshal(data, n)
}

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()

	db, err := badger.Open(Config{InMemory: true}.Build().WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(func() *note { return &note{} })

	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		for _, n := range []*note{{ID: "1", Text: "a"}, {ID: "2", Text: "b"}, {ID: "3", Text: "c"}} {
			if err := repo.Write(txn, n); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, db.View(func(txn *badger.Txn) error {
		all, err := repo.List(txn, "note:id:", false, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "1", all[0].ID)

		newest, err := repo.List(txn, "note:id:", true, 2)
		require.NoError(t, err)
		require.Len(t, newest, 2)
		assert.Equal(t, "3", newest[0].ID)
		assert.Equal(t, "2", newest[1].ID)

		keys, err := repo.Keys(txn, "note:id:", true, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"note:id:2", "note:id:1"}, keys)

		byIndex, err := repo.ReadByIndex(txn, "note:text:b")
		require.NoError(t, err)
		assert.Equal(t, "2", byIndex.ID)

		_, err = repo.Read(txn, "note:id:9")
		assert.ErrorIs(t, err, ErrNotFound)

		return nil
	}))

	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		return repo.Delete(txn, "note:id:2")
	}))

	require.NoError(t, db.View(func(txn *badger.Txn) error {
		_, err := repo.ReadByIndex(txn, "note:text:b")
		assert.ErrorIs(t, err, ErrNotFound)

		all, err := repo.List(txn, "note:id:", false, 0)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		return nil
	}))
}
