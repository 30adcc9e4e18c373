// Package bolt provides the API key and usage ledgers on a single bbolt file.
//
// Buckets:
//
//	api_keys     key        -> APIKey (JSON)
//	usage_users  user id    -> UserUsage (JSON)
//	usage_keys   api key    -> KeyUsage (JSON)
//
// Every mutation is one bbolt transaction, so the user and key aggregates of
// a query are always written together.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

var (
	bucketAPIKeys    = []byte("api_keys")
	bucketUsageUsers = []byte("usage_users")
	bucketUsageKeys  = []byte("usage_keys")
)

var (
	_ driven.APIKeyStore = (*Ledger)(nil)
	_ driven.UsageStore  = (*Ledger)(nil)
)

// storedKey adds an insertion sequence so listings keep creation order.
type storedKey struct {
	domain.APIKey
	Seq uint64 `json:"seq"`
}

// Ledger implements driven.APIKeyStore and driven.UsageStore.
type Ledger struct {
	db *bbolt.DB
}

// Open opens or creates the ledger file at path.
func Open(path string) (*Ledger, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketAPIKeys, bucketUsageUsers, bucketUsageKeys} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Ledger{db: db}, nil
}

// Close closes the underlying file.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// ==================== API Keys ====================

// Add stores a new key.
func (l *Ledger) Add(_ context.Context, key *domain.APIKey) error {
	if key == nil || key.Key == "" {
		return fmt.Errorf("%w: api key is empty", domain.ErrInvalidInput)
	}
	return l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAPIKeys)
		if b.Get([]byte(key.Key)) != nil {
			return fmt.Errorf("%w: api key", domain.ErrAlreadyExists)
		}
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		return putJSON(b, key.Key, storedKey{APIKey: *key, Seq: seq})
	})
}

// Get returns the record for a key.
func (l *Ledger) Get(_ context.Context, key string) (*domain.APIKey, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	var out *domain.APIKey
	err := l.db.View(func(tx *bbolt.Tx) error {
		var sk storedKey
		if err := getJSON(tx.Bucket(bucketAPIKeys), key, &sk); err != nil {
			return err
		}
		out = &sk.APIKey
		return nil
	})
	return out, err
}

// ListByDatabase returns the keys bound to a database.
func (l *Ledger) ListByDatabase(_ context.Context, databaseID string) ([]domain.APIKey, error) {
	return l.listKeys(func(k *domain.APIKey) bool { return k.DatabaseID == databaseID })
}

// ListByUser returns the keys owned by a user.
func (l *Ledger) ListByUser(_ context.Context, userID string) ([]domain.APIKey, error) {
	return l.listKeys(func(k *domain.APIKey) bool { return k.UserID == userID })
}

// SetActive flips a key's active flag.
func (l *Ledger) SetActive(_ context.Context, key string, active bool) error {
	if key == "" {
		return domain.ErrNotFound
	}
	return l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAPIKeys)
		var sk storedKey
		if err := getJSON(b, key, &sk); err != nil {
			return err
		}
		sk.Active = active
		return putJSON(b, key, sk)
	})
}

// DeleteByDatabase removes every key bound to a database.
func (l *Ledger) DeleteByDatabase(_ context.Context, databaseID string) error {
	return l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAPIKeys)
		var doomed [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var sk storedKey
			if err := json.Unmarshal(v, &sk); err != nil {
				return fmt.Errorf("decoding api key: %w", err)
			}
			if sk.DatabaseID == databaseID {
				doomed = append(doomed, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range doomed {
			if err := b.Delete(k); err != nil {
				return fmt.Errorf("deleting api key: %w", err)
			}
		}
		return nil
	})
}

func (l *Ledger) listKeys(keep func(*domain.APIKey) bool) ([]domain.APIKey, error) {
	var stored []storedKey
	err := l.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAPIKeys).ForEach(func(_, v []byte) error {
			var sk storedKey
			if err := json.Unmarshal(v, &sk); err != nil {
				return fmt.Errorf("decoding api key: %w", err)
			}
			if keep(&sk.APIKey) {
				stored = append(stored, sk)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(stored, func(i, j int) bool { return stored[i].Seq < stored[j].Seq })
	out := make([]domain.APIKey, len(stored))
	for i := range stored {
		out[i] = stored[i].APIKey
	}
	return out, nil
}

// ==================== Usage ====================

// Record applies one query to the user and key aggregates in one transaction.
func (l *Ledger) Record(_ context.Context, e domain.QueryEvent) error {
	if e.UserID == "" || e.APIKey == "" {
		return fmt.Errorf("%w: usage event needs a user and an api key", domain.ErrInvalidInput)
	}
	return l.db.Update(func(tx *bbolt.Tx) error {
		users := tx.Bucket(bucketUsageUsers)
		user := domain.NewUserUsage()
		if err := getJSON(users, e.UserID, user); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		user.Record(e)
		if err := putJSON(users, e.UserID, user); err != nil {
			return err
		}

		keys := tx.Bucket(bucketUsageKeys)
		key := domain.NewKeyUsage(e.DatabaseID)
		if err := getJSON(keys, e.APIKey, key); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		key.Record(e)
		return putJSON(keys, e.APIKey, key)
	})
}

// User returns a user's aggregate.
func (l *Ledger) User(_ context.Context, userID string) (*domain.UserUsage, error) {
	if userID == "" {
		return nil, domain.ErrNotFound
	}
	u := domain.NewUserUsage()
	err := l.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx.Bucket(bucketUsageUsers), userID, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Key returns an API key's aggregate.
func (l *Ledger) Key(_ context.Context, key string) (*domain.KeyUsage, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	k := domain.NewKeyUsage("")
	err := l.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx.Bucket(bucketUsageKeys), key, k)
	})
	if err != nil {
		return nil, err
	}
	return k, nil
}

// Report returns every aggregate from one consistent snapshot.
func (l *Ledger) Report(_ context.Context) (*domain.UsageReport, error) {
	report := domain.NewUsageReport()
	err := l.db.View(func(tx *bbolt.Tx) error {
		err := tx.Bucket(bucketUsageUsers).ForEach(func(k, v []byte) error {
			u := domain.NewUserUsage()
			if err := json.Unmarshal(v, u); err != nil {
				return fmt.Errorf("decoding user usage: %w", err)
			}
			report.Users[string(k)] = u
			return nil
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketUsageKeys).ForEach(func(k, v []byte) error {
			ku := domain.NewKeyUsage("")
			if err := json.Unmarshal(v, ku); err != nil {
				return fmt.Errorf("decoding key usage: %w", err)
			}
			report.APIKeys[string(k)] = ku
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ==================== Helper Functions ====================

func getJSON(b *bbolt.Bucket, key string, v any) error {
	data := b.Get([]byte(key))
	if data == nil {
		return domain.ErrNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

func putJSON(b *bbolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := b.Put([]byte(key), data); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
