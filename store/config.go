package store

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/hamidzr/surferh/model"
)

// OpenSlot opens the slot backend selected by cfg. Callers should close the
// returned slot when it implements io.Closer.
func OpenSlot(cfg *model.Config) (Slot, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = DataDir()
	}

	var (
		slot Slot
		err  error
	)
	switch cfg.Backend {
	case model.BackendFile, "":
		slot, err = asSlot(NewFileSlot(dataDir))
	case model.BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(dataDir, "settings.db")
		}
		slot, err = asSlot(NewSQLiteSlot(path))
	case model.BackendRedis:
		slot, err = asSlot(NewRedisSlot(cfg.RedisURL))
	case model.BackendMemory:
		slot = NewMemorySlot()
	default:
		err = errors.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// asSlot keeps a failed constructor from turning into a non-nil interface
// holding a nil pointer.
func asSlot(s Slot, err error) (Slot, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
