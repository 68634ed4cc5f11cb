package config_test

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/artpar/typeforge/config"
	"github.com/rs/zerolog"
)

type reloadRecorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *reloadRecorder) RecordReload(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func newHolder(t *testing.T, content string) (*config.Holder, string) {
	t.Helper()

	path := writeConfig(t, content)
	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	t.Cleanup(h.Stop)
	return h, path
}

func TestHolder_Get(t *testing.T) {
	h, _ := newHolder(t, validConfig())

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Database.DSN != "data/typeforge.db" {
		t.Errorf("Database.DSN = %s, want data/typeforge.db", got.Database.DSN)
	}
	if h.Path() == "" {
		t.Error("Path is empty")
	}
}

func TestHolder_NewHolderMissingFile(t *testing.T) {
	if _, err := config.NewHolder("/nonexistent/typeforge.yaml", zerolog.Nop()); err == nil {
		t.Error("NewHolder should fail for a missing file")
	}
}

func TestHolder_Reload(t *testing.T) {
	h, path := newHolder(t, validConfig())
	rec := &reloadRecorder{}
	h.SetRecorder(rec)

	var mu sync.Mutex
	var received *config.Config
	h.OnChange(func(cfg *config.Config) {
		mu.Lock()
		received = cfg
		mu.Unlock()
	})

	if err := os.WriteFile(path, []byte("logging:\n  level: debug\nserver:\n  page_size: 50\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	cfg := h.Get()
	if cfg.Logging.Level != "debug" || cfg.Server.PageSize != 50 {
		t.Errorf("reloaded = %s/%d, want debug/50", cfg.Logging.Level, cfg.Server.PageSize)
	}

	mu.Lock()
	if received != cfg {
		t.Error("OnChange did not receive the new config")
	}
	mu.Unlock()

	rec.mu.Lock()
	if len(rec.errs) != 1 || rec.errs[0] != nil {
		t.Errorf("recorded reloads = %v, want one success", rec.errs)
	}
	rec.mu.Unlock()
}

func TestHolder_ReloadInvalidConfig(t *testing.T) {
	h, path := newHolder(t, validConfig())
	rec := &reloadRecorder{}
	h.SetRecorder(rec)

	called := false
	h.OnChange(func(*config.Config) { called = true })

	if err := os.WriteFile(path, []byte("logging:\n  level: chatty\n"), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}

	if err := h.Reload(); err == nil {
		t.Error("Reload should fail for invalid config")
	}
	if h.Get().Logging.Level != "info" {
		t.Errorf("should keep old config, got level %s", h.Get().Logging.Level)
	}
	if called {
		t.Error("OnChange called for a failed reload")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.errs) != 1 || rec.errs[0] == nil {
		t.Errorf("recorded reloads = %v, want one failure", rec.errs)
	}
}

func TestHolder_WatchFile(t *testing.T) {
	h, path := newHolder(t, validConfig())

	changed := make(chan *config.Config, 4)
	h.OnChange(func(cfg *config.Config) { changed <- cfg })

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	select {
	case cfg := <-changed:
		if cfg.Logging.Level != "warn" {
			t.Errorf("after file watch, level = %s, want warn", cfg.Logging.Level)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("file watcher did not trigger reload")
	}
}

func TestHolder_StopTwice(t *testing.T) {
	h, _ := newHolder(t, validConfig())
	h.WatchSignals()
	h.Stop()
	h.Stop()
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	h, _ := newHolder(t, validConfig())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if h.Get() == nil {
					t.Error("Get returned nil")
				}
			}
		}()
		go func() {
			defer wg.Done()
			if err := h.Reload(); err != nil {
				t.Errorf("Reload error: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestReloadableFields(t *testing.T) {
	reloadable := config.ReloadableFields()
	restart := config.NonReloadableFields()

	seen := make(map[string]bool)
	for _, f := range reloadable {
		seen[f] = true
	}
	for _, f := range restart {
		if seen[f] {
			t.Errorf("%s listed as both reloadable and non-reloadable", f)
		}
	}
	if !seen["logging.level"] {
		t.Error("logging.level should be reloadable")
	}
}
