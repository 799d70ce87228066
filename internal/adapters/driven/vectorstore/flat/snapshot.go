package flat

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"go.etcd.io/bbolt"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
	"github.com/custodia-labs/cardiomind/internal/logger"
)

// snapshotVersion is bumped when the on-disk layout changes.
const snapshotVersion = 1

// openTimeout bounds how long Save/Load wait for the bbolt file lock held
// by another process.
const openTimeout = 5 * time.Second

var (
	bucketMeta    = []byte("meta")
	bucketRecords = []byte("records")

	keyVersion   = []byte("version")
	keyDimension = []byte("dimension")
)

// snapshotRecord is the persisted form of one record. Vectors are stored
// already unit-normalised, so a loaded store scores queries identically to
// the store that saved it.
type snapshotRecord struct {
	Vector []float32    `json:"vector"`
	Chunk  domain.Chunk `json:"chunk"`
	Seq    uint64       `json:"seq"`
}

// Save checkpoints the store to a bbolt file at path. The snapshot is
// written in a single transaction, replacing any previous contents, and is
// self-describing: dimension and all chunk metadata are recoverable from
// the file alone. The file lock and database handle are released on every
// exit path.
func (s *Store) Save(ctx context.Context, path string) error {
	fl := flock.New(path + ".lock")
	locked, err := fl.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock snapshot %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("lock snapshot %s: already held", path)
	}
	defer fl.Unlock() //nolint:errcheck

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer db.Close()

	s.mu.RLock()
	defer s.mu.RUnlock()

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketRecords} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
		}

		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		if err := meta.Put(keyVersion, u64bytes(snapshotVersion)); err != nil {
			return err
		}
		if err := meta.Put(keyDimension, u64bytes(uint64(s.dimension))); err != nil {
			return err
		}

		records, err := tx.CreateBucket(bucketRecords)
		if err != nil {
			return err
		}
		for _, rec := range s.records {
			data, err := json.Marshal(snapshotRecord{
				Vector: rec.vector,
				Chunk:  rec.chunk,
				Seq:    rec.seq,
			})
			if err != nil {
				return fmt.Errorf("marshal record %q: %w", rec.id, err)
			}
			if err := records.Put([]byte(rec.id), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}

	if err := db.Sync(); err != nil {
		return fmt.Errorf("flush snapshot %s: %w", path, err)
	}

	logger.Info("Saved %d vector record(s) to %s", len(s.records), path)
	return nil
}

// Load reconstructs a store from a snapshot written by Save. The in-memory
// index is rebuilt from the persisted records in insertion order, which
// doubles as the recovery path: the records bucket is the source of truth
// and the index never exists on disk.
func Load(ctx context.Context, path string) (*Store, error) {
	fl := flock.New(path + ".lock")
	locked, err := fl.TryRLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock snapshot %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock snapshot %s: already held", path)
	}
	defer fl.Unlock() //nolint:errcheck

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: openTimeout, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer db.Close()

	store := New()

	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return fmt.Errorf("missing meta bucket: %w", domain.ErrInvalidInput)
		}
		version := bytesU64(meta.Get(keyVersion))
		if version != snapshotVersion {
			return fmt.Errorf("unsupported snapshot version %d: %w", version, domain.ErrInvalidInput)
		}
		dimension := int(bytesU64(meta.Get(keyDimension)))

		records := tx.Bucket(bucketRecords)
		if records == nil {
			return fmt.Errorf("missing records bucket: %w", domain.ErrInvalidInput)
		}

		var loaded []record
		err := records.ForEach(func(k, v []byte) error {
			var sr snapshotRecord
			if err := json.Unmarshal(v, &sr); err != nil {
				return fmt.Errorf("decode record %q: %w", string(k), err)
			}
			if dimension != 0 && len(sr.Vector) != dimension {
				return fmt.Errorf("record %q has %d dimensions, snapshot has %d: %w",
					string(k), len(sr.Vector), dimension, domain.ErrDimensionMismatch)
			}
			loaded = append(loaded, record{
				id:     string(k),
				vector: sr.Vector,
				chunk:  sr.Chunk,
				seq:    sr.Seq,
			})
			return nil
		})
		if err != nil {
			return err
		}

		// Restore insertion order so tie-breaks survive the round trip.
		sort.Slice(loaded, func(i, j int) bool { return loaded[i].seq < loaded[j].seq })

		store.dimension = dimension
		store.records = loaded
		for i, rec := range loaded {
			store.byID[rec.id] = i
			if rec.seq >= store.nextSeq {
				store.nextSeq = rec.seq + 1
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	logger.Info("Loaded %d vector record(s) from %s (dimension %d)",
		store.Size(), path, store.Dimension())
	return store, nil
}

func u64bytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func bytesU64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
