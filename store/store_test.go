package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamidzr/surferh/constant"
	"github.com/hamidzr/surferh/model"
)

// failingSlot fails every operation, like storage that is disabled or full.
type failingSlot struct {
	err error
}

func (f failingSlot) Get(string) (string, error) { return "", f.err }
func (f failingSlot) Set(string, string) error   { return f.err }
func (f failingSlot) Remove(string) error        { return f.err }

func newTestStore(t *testing.T, slot Slot) (*SettingsStore, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	return NewSettingsStore(slot, model.DefaultSchema(), WithLogger(logger)), hook
}

// TestLoadEmptySlot tests that a first run returns defaults silently
func TestLoadEmptySlot(t *testing.T) {
	s, hook := newTestStore(t, NewMemorySlot())

	assert.Equal(t, model.DefaultSettings(), s.Load())
	assert.Empty(t, hook.Entries)
}

// TestLoadMalformed tests that unparsable slot content yields defaults
func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		warns  bool
	}{
		{"bare text", `not json`, true},
		{"json string", `"not json"`, true},
		{"null", `null`, true},
		{"array", `[1, 2, 3]`, true},
		{"number", `42`, true},
		{"truncated object", `{"url": "https://x.test"`, true},
		{"trailing data", `{"url": "https://x.test"} {}`, true},
		{"empty object", `{}`, false},
		{"blank", "  \n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := NewMemorySlot()
			require.NoError(t, slot.Set(constant.SettingsStorageKey, tt.stored))
			s, hook := newTestStore(t, slot)

			assert.Equal(t, model.DefaultSettings(), s.Load())
			if tt.warns {
				require.NotNil(t, hook.LastEntry())
				assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
			} else {
				assert.Empty(t, hook.Entries)
			}
		})
	}
}

func TestLoadLegacyScenario(t *testing.T) {
	slot := NewMemorySlot()
	require.NoError(t, slot.Set(constant.SettingsStorageKey, `{"navigation_model":"h-model","url":"https://x.test"}`))
	s, _ := newTestStore(t, slot)

	got := s.Load()

	assert.Equal(t, model.AgentSettings{
		URL:               "https://x.test",
		MaxNSteps:         30,
		MaxTimeSeconds:    600,
		NavigationModel:   "holo1-7b-20250521",
		LocalizationModel: "holo1-5-7b-20250915",
		ValidationModel:   "holo1-7b-20250521",
		HeadlessBrowser:   true,
		ActionTimeout:     10,
	}, got)
}

func TestLoadReadFailure(t *testing.T) {
	s, hook := newTestStore(t, failingSlot{err: errors.New("storage disabled")})

	assert.Equal(t, model.DefaultSettings(), s.Load())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	var storageErr *StorageError
	require.ErrorAs(t, hook.LastEntry().Data[logrus.ErrorKey].(error), &storageErr)
	assert.Equal(t, "read", storageErr.Op)
}

// TestSaveFailureIsSwallowed tests that a failing slot never reaches the caller
func TestSaveFailureIsSwallowed(t *testing.T) {
	s, hook := newTestStore(t, failingSlot{err: errors.New("quota exceeded")})

	assert.NotPanics(t, func() {
		s.Save(model.DefaultSettings())
	})

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "failed to save settings", entry.Message)

	var storageErr *StorageError
	require.ErrorAs(t, entry.Data[logrus.ErrorKey].(error), &storageErr)
	assert.Equal(t, "write", storageErr.Op)
	assert.Equal(t, constant.SettingsStorageKey, storageErr.Key)
	assert.EqualError(t, errors.Cause(storageErr.Err), "quota exceeded")
}

func TestSaveWritesFlatObject(t *testing.T) {
	slot := NewMemorySlot()
	s, _ := newTestStore(t, slot)

	s.Save(model.DefaultSettings())

	stored, err := slot.Get(constant.SettingsStorageKey)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(stored), &raw))
	assert.Len(t, raw, len(model.Fields))
	for _, f := range model.Fields {
		assert.Contains(t, raw, f.Key)
	}
	assert.Equal(t, "holo1-5-7b-20250915", raw["localization_model"])
}

// Edits are not range checked, so out-of-range values persist as-is.
func TestSaveKeepsOutOfRangeValues(t *testing.T) {
	s, _ := newTestStore(t, NewMemorySlot())
	settings := model.DefaultSettings()
	settings.MaxNSteps = -3
	settings.URL = "definitely not a url"

	s.Save(settings)

	assert.Equal(t, settings, s.Load())
}

func TestSaveOverwrites(t *testing.T) {
	s, _ := newTestStore(t, NewMemorySlot())
	first := model.DefaultSettings()
	first.MaxNSteps = 5
	second := model.DefaultSettings()
	second.MaxNSteps = 6

	s.Save(first)
	s.Save(second)

	assert.Equal(t, 6, s.Load().MaxNSteps)
}

func TestClear(t *testing.T) {
	slot := NewMemorySlot()
	s, hook := newTestStore(t, slot)
	settings := model.DefaultSettings()
	settings.HeadlessBrowser = false
	s.Save(settings)

	s.Clear()

	_, err := slot.Get(constant.SettingsStorageKey)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, model.DefaultSettings(), s.Load())
	assert.Empty(t, hook.Entries)
}

func TestWithKey(t *testing.T) {
	slot := NewMemorySlot()
	logger, _ := test.NewNullLogger()
	s := NewSettingsStore(slot, model.DefaultSchema(), WithKey("other-profile"), WithLogger(logger))

	s.Save(model.DefaultSettings())

	assert.Equal(t, "other-profile", s.Key())
	_, err := slot.Get("other-profile")
	assert.NoError(t, err)
	_, err = slot.Get(constant.SettingsStorageKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadRaw(t *testing.T) {
	slot := NewMemorySlot()
	s, _ := newTestStore(t, slot)

	_, err := s.ReadRaw()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, slot.Set(constant.SettingsStorageKey, `{"url":1}`))
	raw, err := s.ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, `{"url":1}`, raw)
}

func TestDecodeRecord(t *testing.T) {
	raw, err := DecodeRecord([]byte(`{"max_n_steps": 12, "extra": [1]}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("12"), raw["max_n_steps"])

	_, err = DecodeRecord([]byte(`["a"]`))
	assert.Error(t, err)
	_, err = DecodeRecord([]byte(``))
	assert.Error(t, err)
}

// TestRoundTripBackends tests save/load idempotence on every local backend
func TestRoundTripBackends(t *testing.T) {
	dir := t.TempDir()
	fileSlot, err := NewFileSlot(filepath.Join(dir, "files"))
	require.NoError(t, err)
	sqliteSlot, err := NewSQLiteSlot(filepath.Join(dir, "db", "settings.db"))
	require.NoError(t, err)
	defer sqliteSlot.Close()

	backends := map[string]Slot{
		"file":   fileSlot,
		"sqlite": sqliteSlot,
		"memory": NewMemorySlot(),
	}

	valid := model.AgentSettings{
		URL:               "https://www.google.com/travel/flights",
		MaxNSteps:         55,
		MaxTimeSeconds:    1800,
		NavigationModel:   model.ModelGPT41,
		LocalizationModel: model.ModelHolo15,
		ValidationModel:   model.ModelGPT41,
		HeadlessBrowser:   false,
		ActionTimeout:     25,
	}

	for name, slot := range backends {
		t.Run(name, func(t *testing.T) {
			s, hook := newTestStore(t, slot)
			assert.Equal(t, model.DefaultSettings(), s.Load())

			s.Save(valid)
			assert.Equal(t, valid, s.Load())

			// a second round trip must not drift
			s.Save(s.Load())
			assert.Equal(t, valid, s.Load())
			assert.Empty(t, hook.Entries)
		})
	}
}

func TestFileSlotInvalidKeys(t *testing.T) {
	slot, err := NewFileSlot(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		assert.Error(t, slot.Set(key, "x"), key)
		_, err := slot.Get(key)
		assert.Error(t, err, key)
		assert.Error(t, slot.Remove(key), key)
	}
}

func TestFileSlotRemoveMissing(t *testing.T) {
	slot, err := NewFileSlot(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, slot.Remove("never-written"))
}

// TestFileSlotReadsWholeRecordDuringRewrite tests that a reader never sees a
// half written file while another store keeps saving the same value
func TestFileSlotReadsWholeRecordDuringRewrite(t *testing.T) {
	dir := t.TempDir()
	slot, err := NewFileSlot(dir)
	require.NoError(t, err)
	writer, writerHook := newTestStore(t, slot)
	reader, readerHook := newTestStore(t, slot)

	saved := model.DefaultSettings()
	saved.MaxNSteps = 77
	writer.Save(saved)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				writer.Save(saved)
			}
		}
	}()

	torn := 0
	for i := 0; i < 2000; i++ {
		if reader.Load() != saved {
			torn++
		}
	}
	close(stop)
	wg.Wait()

	assert.Zero(t, torn, "loads that missed the saved record")
	assert.Empty(t, readerHook.Entries)
	assert.Empty(t, writerHook.Entries)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, constant.SettingsStorageKey+".json", entries[0].Name())
}

func TestFileSlotUnreadable(t *testing.T) {
	dir := t.TempDir()
	slot, err := NewFileSlot(dir)
	require.NoError(t, err)
	// a directory where the file should be makes the read fail
	require.NoError(t, os.MkdirAll(slot.Path(constant.SettingsStorageKey), 0o755))

	s, hook := newTestStore(t, slot)
	assert.Equal(t, model.DefaultSettings(), s.Load())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	s.Save(model.DefaultSettings())
	assert.Len(t, hook.Entries, 2)
}

func TestLocation(t *testing.T) {
	dir := t.TempDir()
	fileSlot, err := NewFileSlot(dir)
	require.NoError(t, err)
	s, _ := newTestStore(t, fileSlot)
	assert.Equal(t, filepath.Join(dir, constant.SettingsStorageKey+".json"), s.Location())

	sqliteSlot, err := NewSQLiteSlot(filepath.Join(dir, "s.db"))
	require.NoError(t, err)
	defer sqliteSlot.Close()
	s, _ = newTestStore(t, sqliteSlot)
	assert.Contains(t, s.Location(), "s.db")

	s, _ = newTestStore(t, NewMemorySlot())
	assert.Contains(t, s.Location(), "memory")

	s, _ = newTestStore(t, failingSlot{})
	assert.Contains(t, s.Location(), "failingSlot")
}

func TestOpenSlot(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		want    any
	}{
		{model.BackendFile, &FileSlot{}},
		{"", &FileSlot{}},
		{model.BackendSQLite, &SQLiteSlot{}},
		{model.BackendMemory, &MemorySlot{}},
	}
	for _, tt := range tests {
		t.Run("backend_"+tt.backend, func(t *testing.T) {
			cfg := model.DefaultConfig()
			cfg.Backend = tt.backend
			cfg.DataDir = dir

			slot, err := OpenSlot(cfg)
			require.NoError(t, err)
			assert.IsType(t, tt.want, slot)
			if closer, ok := slot.(interface{ Close() error }); ok {
				assert.NoError(t, closer.Close())
			}
		})
	}

	cfg := model.DefaultConfig()
	cfg.Backend = "floppy"
	slot, err := OpenSlot(cfg)
	assert.Error(t, err)
	assert.Nil(t, slot)

	cfg = model.DefaultConfig()
	cfg.Backend = model.BackendRedis
	cfg.RedisURL = "not a url"
	slot, err = OpenSlot(cfg)
	assert.Error(t, err)
	assert.Nil(t, slot)
}

func TestRedisSlot(t *testing.T) {
	url := os.Getenv("SURFERH_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SURFERH_TEST_REDIS_URL not set")
	}
	slot, err := NewRedisSlot(url)
	require.NoError(t, err)
	defer slot.Close()

	key := "test-" + time.Now().Format("150405.000000")
	defer func() { _ = slot.Remove(key) }()

	_, err = slot.Get(key)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, slot.Set(key, `{"url":"https://x.test"}`))
	value, err := slot.Get(key)
	require.NoError(t, err)
	assert.Equal(t, `{"url":"https://x.test"}`, value)
}

func TestWatchUnsupported(t *testing.T) {
	s, _ := newTestStore(t, NewMemorySlot())
	err := s.Watch(context.Background(), time.Millisecond, func(model.AgentSettings) {})
	assert.ErrorIs(t, err, ErrWatchUnsupported)
}

// TestWatchReloadsExternalWrites tests that a second writer's save is picked up
func TestWatchReloadsExternalWrites(t *testing.T) {
	dir := t.TempDir()
	slot, err := NewFileSlot(dir)
	require.NoError(t, err)
	watched, _ := newTestStore(t, slot)
	other, _ := newTestStore(t, slot)

	var (
		mu   sync.Mutex
		seen []model.AgentSettings
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watched.Watch(ctx, 20*time.Millisecond, func(s model.AgentSettings) {
			mu.Lock()
			seen = append(seen, s)
			mu.Unlock()
		})
	}()

	updated := model.DefaultSettings()
	updated.MaxNSteps = 99
	// the watcher registers asynchronously, keep writing until it reports
	require.Eventually(t, func() bool {
		other.Save(updated)
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1].MaxNSteps == 99
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

// TestFileSlotWatchCallbacksDoNotOverlap tests that reloads run one at a time
// and that none is still running once Watch returns
func TestFileSlotWatchCallbacksDoNotOverlap(t *testing.T) {
	slot, err := NewFileSlot(t.TempDir())
	require.NoError(t, err)
	key := constant.SettingsStorageKey

	var (
		active  atomic.Int32
		overlap atomic.Bool
		calls   atomic.Int32
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- slot.Watch(ctx, key, time.Millisecond, func() {
			if active.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(20 * time.Millisecond)
			calls.Add(1)
			active.Add(-1)
		})
	}()

	require.Eventually(t, func() bool {
		for i := 0; i < 5; i++ {
			_ = slot.Set(key, `{}`)
			time.Sleep(5 * time.Millisecond)
		}
		return calls.Load() >= 3
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
	assert.Zero(t, active.Load(), "callback still running after Watch returned")
	after := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
	assert.False(t, overlap.Load())
}
