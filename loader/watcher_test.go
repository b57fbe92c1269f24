package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestWatcher_DebouncedReload(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	pkg := filepath.Join(root, "quest1")
	if err := os.Mkdir(pkg, 0o755); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 10)
	w, err := NewWatcher(root, 50*time.Millisecond, func(context.Context) {
		changed <- struct{}{}
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// A burst of edits settles into one reload.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(filepath.Join(pkg, "defs.yml"), []byte("events:\n  a: tag add a\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after editing a package file")
	}
	select {
	case <-changed:
		t.Error("burst of edits caused more than one reload")
	case <-time.After(200 * time.Millisecond):
	}

	// Files that are not package files are ignored.
	if err := os.WriteFile(filepath.Join(pkg, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
		t.Error("reload for a non-package file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := NewWatcher(t.TempDir(), time.Millisecond, func(context.Context) {}, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Stop()
}
