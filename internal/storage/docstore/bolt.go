package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const collectionsBucket = "collections"

// BoltStore is a single-file Store. Each collection is one bucket entry
// holding the envelope below; the read-check-write happens inside one
// bbolt update transaction.
type BoltStore struct {
	db *bbolt.DB
}

type boltEnvelope struct {
	Data      json.RawMessage `json:"data"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func OpenBoltStore(path string) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(collectionsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create collections bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(ctx context.Context, key string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	var doc Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		env, err := readEnvelope(tx, key)
		if err != nil {
			return err
		}
		doc = Document{Key: key, Data: env.Data, Version: env.Version, UpdatedAt: env.UpdatedAt}
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *BoltStore) Set(ctx context.Context, key string, data json.RawMessage, expectedVersion int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var version int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		current := int64(0)
		env, err := readEnvelope(tx, key)
		if err == nil {
			current = env.Version
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		if current != expectedVersion {
			return &ConflictError{Key: key, Expected: expectedVersion, Current: current}
		}
		version = current + 1
		return writeEnvelope(tx, key, data, version)
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *BoltStore) Force(ctx context.Context, key string, data json.RawMessage) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var version int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		current := int64(0)
		env, err := readEnvelope(tx, key)
		if err == nil {
			current = env.Version
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		version = current + 1
		return writeEnvelope(tx, key, data, version)
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func readEnvelope(tx *bbolt.Tx, key string) (boltEnvelope, error) {
	bucket := tx.Bucket([]byte(collectionsBucket))
	if bucket == nil {
		return boltEnvelope{}, fmt.Errorf("collections bucket is missing")
	}
	payload := bucket.Get([]byte(key))
	if payload == nil {
		return boltEnvelope{}, ErrNotFound
	}
	var env boltEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return boltEnvelope{}, fmt.Errorf("unmarshal collection %q: %w", key, err)
	}
	return env, nil
}

func writeEnvelope(tx *bbolt.Tx, key string, data json.RawMessage, version int64) error {
	payload, err := json.Marshal(boltEnvelope{
		Data:      data,
		Version:   version,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal collection %q: %w", key, err)
	}
	bucket := tx.Bucket([]byte(collectionsBucket))
	if bucket == nil {
		return fmt.Errorf("collections bucket is missing")
	}
	return bucket.Put([]byte(key), payload)
}
