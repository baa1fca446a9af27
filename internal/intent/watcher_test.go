package intent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lifehub/internal/domain"
)

// waitReloads polls until the watcher has seen n reloads or the deadline
// passes. Filesystem events plus debounce make the exact timing unknowable,
// so the deadline is generous.
func waitReloads(t *testing.T, rw *RuleWatcher, n int) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if rw.Reloads() >= n {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for reload %d (saw %d)", n, rw.Reloads())
}

func TestRuleWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.yaml")

	c := New(nil, nil)
	rw, err := NewRuleWatcher(path, c)
	if err != nil {
		t.Fatalf("NewRuleWatcher failed: %v", err)
	}
	if err := rw.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer rw.Stop()

	overlay := []byte(`
modules:
  finance:
    keywords:
      - keyword: crypto
        response: Keep speculative assets under 5% of your portfolio.
`)
	if err := os.WriteFile(path, overlay, 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	waitReloads(t, rw, 1)

	result := c.Classify("what about crypto", domain.ModuleFinance)
	if result.Response != "Keep speculative assets under 5% of your portfolio." {
		t.Fatalf("overlay keyword not active after reload, got %q", result.Response)
	}
}

func TestRuleWatcher_KeepsTablesOnBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.yaml")

	c := New(nil, nil)
	rw, err := NewRuleWatcher(path, c)
	if err != nil {
		t.Fatalf("NewRuleWatcher failed: %v", err)
	}
	if err := rw.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer rw.Stop()

	good := []byte("modules:\n  chat:\n    default: Custom fallback.\n")
	if err := os.WriteFile(path, good, 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	waitReloads(t, rw, 1)

	if err := os.WriteFile(path, []byte("modules: [broken"), 0o644); err != nil {
		t.Fatalf("write broken overlay: %v", err)
	}
	// The broken write is observed but never counted as a reload; give the
	// debounce window time to elapse, then confirm the old tables survived.
	time.Sleep(600 * time.Millisecond)
	if rw.Reloads() != 1 {
		t.Fatalf("broken file must not count as a reload, got %d", rw.Reloads())
	}
	result := c.Classify("xyzzy", domain.ModuleChat)
	if result.Response != "Custom fallback." {
		t.Fatalf("previous tables lost after bad reload, got %q", result.Response)
	}
}

func TestRuleWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	rw, err := NewRuleWatcher(path, New(nil, nil))
	if err != nil {
		t.Fatalf("NewRuleWatcher failed: %v", err)
	}
	if err := rw.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	rw.Stop()
	rw.Stop()
}
