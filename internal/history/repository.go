package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gitsyncd/gitsyncd/pkg/badgerfx"
	"github.com/samber/lo"
)

// Repository stores records keyed by UUIDv7, so key order is insertion
// order.
type Repository struct {
	db      *badger.DB
	records *badgerfx.Repository[*recordModel]
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{
		db: db,
		records: badgerfx.NewRepository(func() *recordModel {
			return &recordModel{}
		}),
	}
}

// Create stores a record and prunes everything beyond the newest keep
// records. The newest successful record survives pruning so the last sync
// time can always be restored. A non-positive keep disables pruning.
func (r *Repository) Create(_ context.Context, model *recordModel, keep int) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := r.records.Write(txn, model); err != nil {
			return err
		}

		if keep <= 0 {
			return nil
		}

		stale, err := r.records.Keys(txn, prefixByID, true, keep)
		if err != nil {
			return err
		}

		successes, err := r.records.Keys(txn, prefixBySuccess, true, 0)
		if err != nil {
			return err
		}
		if len(successes) > 0 {
			latest := prefixByID + strings.TrimPrefix(successes[0], prefixBySuccess)
			stale = lo.Without(stale, latest)
		}

		for _, key := range stale {
			if delErr := r.records.Delete(txn, key); delErr != nil {
				return delErr
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store sync record: %w", err)
	}

	return nil
}

// List returns up to limit records, newest first.
func (r *Repository) List(_ context.Context, limit int) ([]Record, error) {
	var models []*recordModel

	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		models, err = r.records.List(txn, prefixByID, true, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sync records: %w", err)
	}

	return lo.Map(models, func(m *recordModel, _ int) Record {
		return *newRecord(m)
	}), nil
}

// LastSuccess returns the newest record that advanced the remote.
func (r *Repository) LastSuccess(_ context.Context) (*Record, error) {
	var latest *recordModel

	err := r.db.View(func(txn *badger.Txn) error {
		indexes, err := r.records.Keys(txn, prefixBySuccess, true, 0)
		if err != nil {
			return err
		}
		if len(indexes) == 0 {
			return ErrNotFound
		}

		latest, err = r.records.ReadByIndex(txn, indexes[0])
		if errors.Is(err, badgerfx.ErrNotFound) {
			return ErrNotFound
		}

		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last successful sync: %w", err)
	}

	return newRecord(latest), nil
}
