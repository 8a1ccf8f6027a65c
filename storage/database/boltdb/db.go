// Package boltdb is the embedded document store backend.
//
// Every document is stored as a versioned record. Writers that read-modify-write a
// document replace it only if its version did not change in between, and retry otherwise.
package boltdb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/csbssync/portal/core"
)

// Buckets
var (
	usersBucket         = []byte("users")
	usersByEmailBucket  = []byte("users_by_email")
	worksBucket         = []byte("works")
	topicsBucket        = []byte("studies")
	materialsBucket     = []byte("materials")
	announcementsBucket = []byte("announcements")

	allBuckets = [][]byte{
		usersBucket, usersByEmailBucket, worksBucket, topicsBucket, materialsBucket, announcementsBucket,
	}
)

var (
	errNoRecord = errors.New("record not found")
	errConflict = errors.New("record version conflict")
)

// maxAttempts bounds optimistic retries. With n concurrent writers on the same
// record, a writer loses at most n-1 times.
const maxAttempts = 16

type DB struct {
	bolt *bbolt.DB
}

// Open opens (or creates) the database file and its buckets.
func Open(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("bolt path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating bolt dir")
	}

	bdb, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening bolt db")
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(err, "creating bucket %s", name)
			}
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return &DB{bolt: bdb}, nil
}

func (db *DB) Close() error {
	if db == nil || db.bolt == nil {
		return nil
	}
	return db.bolt.Close()
}

// record is the envelope of every stored document.
type record struct {
	Version uint64          `json:"version"`
	Data    json.RawMessage `json:"data"`
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func getRecord(tx *bbolt.Tx, bucket []byte, id string, v interface{}) (uint64, error) {
	b := tx.Bucket(bucket)
	if b == nil {
		return 0, errors.Errorf("bucket %s is missing", bucket)
	}
	raw := b.Get([]byte(id))
	if raw == nil {
		return 0, errNoRecord
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return 0, errors.Wrap(err, "decoding record")
	}
	if err := json.Unmarshal(rec.Data, v); err != nil {
		return 0, errors.Wrap(err, "decoding document")
	}
	return rec.Version, nil
}

// putRecord writes v as the next version of the record.
// expected is the version the caller read; 0 means the record must not exist.
func putRecord(tx *bbolt.Tx, bucket []byte, id string, expected uint64, v interface{}) (uint64, error) {
	b := tx.Bucket(bucket)
	if b == nil {
		return 0, errors.Errorf("bucket %s is missing", bucket)
	}

	var current uint64
	if raw := b.Get([]byte(id)); raw != nil {
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return 0, errors.Wrap(err, "decoding record")
		}
		current = rec.Version
	} else if expected != 0 {
		return 0, errNoRecord
	}
	if current != expected {
		return 0, errConflict
	}

	data, err := json.Marshal(v)
	if err != nil {
		return 0, errors.Wrap(err, "encoding document")
	}
	raw, err := json.Marshal(record{Version: current + 1, Data: data})
	if err != nil {
		return 0, errors.Wrap(err, "encoding record")
	}
	return current + 1, b.Put([]byte(id), raw)
}

// collection gives typed access to the documents of a bucket.
type collection[T any] struct {
	db       *DB
	bucket   []byte
	notFound error
}

func (c collection[T]) wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Cause(err) == errNoRecord:
		return c.notFound
	case core.IsNotFound(err):
		return err
	}
	return core.NewStorageError(op, err)
}

func (c collection[T]) get(ctx context.Context, id string) (T, uint64, error) {
	var (
		doc     T
		version uint64
	)
	if err := ctx.Err(); err != nil {
		return doc, 0, err
	}
	err := c.db.bolt.View(func(tx *bbolt.Tx) error {
		var err error
		version, err = getRecord(tx, c.bucket, id, &doc)
		return err
	})
	return doc, version, c.wrap("get "+string(c.bucket), err)
}

func (c collection[T]) insert(ctx context.Context, id string, doc T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.db.bolt.Update(func(tx *bbolt.Tx) error {
		_, err := putRecord(tx, c.bucket, id, 0, doc)
		return err
	})
	return c.wrap("insert "+string(c.bucket), err)
}

func (c collection[T]) remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.db.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(c.bucket)
		if b.Get([]byte(id)) == nil {
			return errNoRecord
		}
		return b.Delete([]byte(id))
	})
	return c.wrap("delete "+string(c.bucket), err)
}

// all returns every document sorted with less.
func (c collection[T]) all(ctx context.Context, less func(a, b T) bool) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs := make([]T, 0)
	err := c.db.bolt.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(c.bucket).ForEach(func(_, raw []byte) error {
			var rec record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return errors.Wrap(err, "decoding record")
			}
			var doc T
			if err := json.Unmarshal(rec.Data, &doc); err != nil {
				return errors.Wrap(err, "decoding document")
			}
			docs = append(docs, doc)
			return nil
		})
	})
	if err != nil {
		return nil, c.wrap("list "+string(c.bucket), err)
	}
	if less != nil {
		sort.SliceStable(docs, func(i, j int) bool { return less(docs[i], docs[j]) })
	}
	return docs, nil
}

// modify applies fn to the current document and saves it if nobody wrote it in between.
// Conflicting writes are retried with a fresh read, up to maxAttempts.
func (c collection[T]) modify(ctx context.Context, id string, fn func(doc *T) error) (T, error) {
	var zero T
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		doc, version, err := c.get(ctx, id)
		if err != nil {
			return zero, err
		}
		if err = fn(&doc); err != nil {
			return zero, err
		}
		if err = ctx.Err(); err != nil {
			return zero, err
		}

		err = c.db.bolt.Update(func(tx *bbolt.Tx) error {
			_, err := putRecord(tx, c.bucket, id, version, doc)
			return err
		})
		if errors.Cause(err) == errConflict {
			continue
		}
		if err != nil {
			return zero, c.wrap("update "+string(c.bucket), err)
		}
		return doc, nil
	}
	return zero, core.NewStorageError("update "+string(c.bucket), errors.Wrapf(errConflict, "gave up after %d attempts", maxAttempts))
}

// newestFirst orders by creation time then id, both descending.
func newestFirst(aTime, bTime time.Time, aID, bID string) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aID > bID
}
