// Package sessionstore persists authenticated portal sessions and the
// per-user refresh status string. Both are addressed by user id with
// last-writer-wins semantics.
package sessionstore

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/sessionstore")

var ErrNotFound = errors.New("no value stored for this user")

type Store struct {
	db *badger.DB
}

// Open opens the store at the given directory, or in memory when the
// path is empty.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func sessionKey(uid string) []byte {
	return []byte("session:" + uid)
}

func statusKey(uid string) []byte {
	return []byte("status:" + uid)
}

func (s *Store) get(ctx context.Context, key []byte) ([]byte, error) {
	_, span := tracer.Start(ctx, "get")
	defer span.End()
	span.SetAttributes(attribute.String("key", string(key)))

	tx := s.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return nil, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy stored item")
		return nil, err
	}
	return value, nil
}

func (s *Store) set(ctx context.Context, key, value []byte) error {
	_, span := tracer.Start(ctx, "set")
	defer span.End()
	span.SetAttributes(attribute.String("key", string(key)))

	err := s.db.Update(func(tx *badger.Txn) error {
		return tx.Set(key, value)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write item to badger")
		return err
	}
	return nil
}

// SaveSession overwrites the serialized session snapshot for a user.
func (s *Store) SaveSession(ctx context.Context, uid string, token []byte) error {
	return s.set(ctx, sessionKey(uid), token)
}

// LoadSession returns the serialized session snapshot for a user, or
// ErrNotFound when no login has been persisted yet.
func (s *Store) LoadSession(ctx context.Context, uid string) ([]byte, error) {
	return s.get(ctx, sessionKey(uid))
}

func (s *Store) SetStatus(ctx context.Context, uid, status string) error {
	return s.set(ctx, statusKey(uid), []byte(status))
}

// GetStatus returns the last refresh status for a user, or the empty
// string when the user has never been refreshed.
func (s *Store) GetStatus(ctx context.Context, uid string) (string, error) {
	value, err := s.get(ctx, statusKey(uid))
	if err == ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(value), nil
}
