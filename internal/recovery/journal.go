// Package recovery keeps launch records that reached the ledger but could not
// be persisted. Each entry is replayed into the record store later, so a
// live token never stays undiscoverable.
package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/storage"
)

const keyPrefix = "pending/"

// Entry is one record awaiting re-insertion.
type Entry struct {
	Record    *domain.LaunchRecord `json:"record"`
	AttemptID string               `json:"attemptId"`
	Reason    string               `json:"reason"`
	QueuedAt  int64                `json:"queuedAt"` // Unix ms
}

// Options configures a Journal.
type Options struct {
	// Dir is the badger data directory. Empty keeps the journal in memory.
	Dir    string
	Logger logrus.FieldLogger
}

// Journal is a badger-backed queue of pending records keyed by token address.
type Journal struct {
	db     *badger.DB
	logger logrus.FieldLogger
}

// Open opens the journal, creating the data directory if needed.
func Open(opts Options) (*Journal, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}

	var badgerOpts badger.Options
	if opts.Dir == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
		badgerOpts = badger.DefaultOptions(filepath.Join(opts.Dir, "recovery"))
	}
	// The default INFO logging is a bit verbose
	badgerOpts = badgerOpts.
		WithLogger(logger.WithField("component", "recovery")).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open recovery journal: %w", err)
	}

	j := &Journal{db: db, logger: logger}
	if n, err := j.Len(); err == nil {
		observability.SetRecoveryJournalSize(n)
	}
	return j, nil
}

// Close closes the journal.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Put queues an entry, replacing any earlier entry for the same address.
func (j *Journal) Put(e *Entry) error {
	if e == nil || e.Record == nil || e.Record.Address == "" {
		return storage.ErrInvalidInput
	}
	if e.QueuedAt == 0 {
		e.QueuedAt = time.Now().UnixMilli()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}

	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(e.Record.Address), data)
	})
	if err != nil {
		return fmt.Errorf("write journal entry: %w", err)
	}
	j.refreshGauge()
	return nil
}

// Get returns the entry for address. Returns storage.ErrNotFound if absent.
func (j *Journal) Get(address string) (*Entry, error) {
	var e Entry
	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(address))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read journal entry: %w", err)
	}
	return &e, nil
}

// List returns all entries ordered by address.
func (j *Journal) List() ([]*Entry, error) {
	var entries []*Entry
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			entries = append(entries, &e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	return entries, nil
}

// Len returns the number of queued entries.
func (j *Journal) Len() (int, error) {
	n := 0
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Delete removes the entry for address. Deleting a missing entry is not an error.
func (j *Journal) Delete(address string) error {
	err := j.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(address))
	})
	if err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	j.refreshGauge()
	return nil
}

// ReplayResult summarizes one Replay run.
type ReplayResult struct {
	Inserted  []string          // addresses written to the store
	Existing  []string          // addresses already present, dropped from the journal
	Remaining map[string]string // address -> error for entries still queued
}

// Replay inserts every queued record into store. Entries are removed once the
// store holds the record, whether this run wrote it or an earlier one did.
func (j *Journal) Replay(ctx context.Context, store storage.RecordStore) (*ReplayResult, error) {
	entries, err := j.List()
	if err != nil {
		return nil, err
	}

	result := &ReplayResult{Remaining: make(map[string]string)}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		address := e.Record.Address
		log := j.logger.WithFields(logrus.Fields{"address": address, "attempt_id": e.AttemptID})

		err := store.Insert(ctx, e.Record)
		switch {
		case err == nil:
			result.Inserted = append(result.Inserted, address)
			log.Info("replayed pending launch record")
		case errors.Is(err, storage.ErrDuplicateKey):
			result.Existing = append(result.Existing, address)
			log.Info("pending launch record already stored")
		default:
			result.Remaining[address] = err.Error()
			log.WithError(err).Warn("replay of pending launch record failed")
			continue
		}

		if err := j.Delete(address); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (j *Journal) refreshGauge() {
	n, err := j.Len()
	if err != nil {
		j.logger.WithError(err).Warn("count recovery journal")
		return
	}
	observability.SetRecoveryJournalSize(n)
}

func key(address string) []byte {
	return []byte(keyPrefix + address)
}
