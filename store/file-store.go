package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FileSlot keeps each key in its own JSON file inside dir.
type FileSlot struct {
	dir string
}

func NewFileSlot(dir string) (*FileSlot, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating slot directory %s", dir)
	}
	return &FileSlot{dir: dir}, nil
}

// Path returns the file backing key.
func (fs *FileSlot) Path(key string) string {
	return filepath.Join(fs.dir, key+".json")
}

func validKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return errors.Errorf("invalid slot key %q", key)
	}
	return nil
}

func (fs *FileSlot) Get(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	data, err := os.ReadFile(fs.Path(key))
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "reading slot file")
	}
	return string(data), nil
}

func (fs *FileSlot) Set(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(fs.dir, key+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp slot file")
	}
	// readers only ever see the old file or the complete new one
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing slot file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "syncing slot file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing slot file")
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrap(err, "setting slot file mode")
	}
	return errors.Wrap(os.Rename(tmp.Name(), fs.Path(key)), "replacing slot file")
}

func (fs *FileSlot) Remove(key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := os.Remove(fs.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing slot file")
	}
	return nil
}

func (fs *FileSlot) Locate(key string) string {
	return fs.Path(key)
}
