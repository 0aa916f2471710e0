package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"chatsync/pkg/errs"
	"chatsync/pkg/logger"
)

var (
	db     *pebble.DB
	dbPath string
)

// ErrKeyExists is returned by conditional inserts when the key is already
// present. Callers racing on the same logical entity re-read by key and
// adopt the winner.
var ErrKeyExists = errors.New("key already exists")

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Log.Info("opening_pebble_db", zap.String("path", path))
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Log.Error("pebble_open_failed", zap.String("path", path), zap.Error(err))
		return err
	}
	dbPath = path
	logger.Log.Info("pebble_opened", zap.String("path", path))
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	dbPath = ""
	logger.Log.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// DiskUsage returns the best-effort on-disk size of the database directory.
func DiskUsage() uint64 {
	if dbPath == "" {
		return 0
	}
	var total uint64
	_ = filepath.WalkDir(dbPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			total += uint64(fi.Size())
		}
		return nil
	})
	return total
}

func notOpen() error {
	return fmt.Errorf("%w: pebble not opened; call store.Open first", errs.ErrTransient)
}

// getRaw reads a key, translating pebble.ErrNotFound into the request
// taxonomy so callers can errors.Is against errs.ErrNotFound.
func getRaw(key string) ([]byte, error) {
	if db == nil {
		return nil, notOpen()
	}
	v, closer, err := db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, key)
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrTransient, err)
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

func setRaw(key string, value []byte) error {
	if db == nil {
		return notOpen()
	}
	if err := db.Set([]byte(key), value, pebble.Sync); err != nil {
		logger.Log.Error("save_key_failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: %v", errs.ErrTransient, err)
	}
	return nil
}

// setPairRaw writes two keys in one synced batch so a crash between them
// can never leave one without the other.
func setPairRaw(k1 string, v1 []byte, k2 string, v2 []byte) error {
	if db == nil {
		return notOpen()
	}
	b := db.NewBatch()
	defer b.Close()
	_ = b.Set([]byte(k1), v1, nil)
	_ = b.Set([]byte(k2), v2, nil)
	if err := db.Apply(b, pebble.Sync); err != nil {
		logger.Log.Error("save_batch_failed", zap.String("key", k1), zap.Error(err))
		return fmt.Errorf("%w: %v", errs.ErrTransient, err)
	}
	return nil
}

func deleteRaw(key string) error {
	if db == nil {
		return notOpen()
	}
	if err := db.Delete([]byte(key), pebble.Sync); err != nil {
		logger.Log.Error("delete_key_failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: %v", errs.ErrTransient, err)
	}
	return nil
}

// scanPrefix walks all keys with the given prefix in lexicographic order and
// invokes fn with a stable copy of each key and value.
func scanPrefix(prefix string, fn func(key string, value []byte) error) error {
	if db == nil {
		return notOpen()
	}
	pfx := []byte(prefix)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrTransient, err)
	}
	defer iter.Close()
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		k := string(iter.Key())
		v := append([]byte(nil), iter.Value()...)
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return iter.Error()
}

// ListKeys returns all keys that start with the given prefix. Used by the
// inspect tool; not a hot path.
func ListKeys(prefix string) ([]string, error) {
	var out []string
	err := scanPrefix(prefix, func(k string, _ []byte) error {
		out = append(out, k)
		return nil
	})
	return out, err
}

// GetKey returns the raw value for the given key.
func GetKey(key string) (string, error) {
	v, err := getRaw(key)
	if err != nil {
		return "", err
	}
	return string(v), nil
}
