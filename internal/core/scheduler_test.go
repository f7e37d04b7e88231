package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestService_CleanupExports(t *testing.T) {
	cfg := testConfig(t)
	s := newTestService(t, cfg, &fakeQuerier{}, nil)
	dir := filepath.Join(cfg.Export.VarDir, "export")

	old := filepath.Join(dir, "old.csv")
	fresh := filepath.Join(dir, "fresh.csv")
	for _, p := range []string{old, fresh} {
		if err := os.WriteFile(p, []byte("ID\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "keep"), 0o755); err != nil {
		t.Fatal(err)
	}

	if n := s.CleanupExports(context.Background(), time.Now().Add(-24*time.Hour)); n != 1 {
		t.Errorf("removed %d files, want 1", n)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired export still present")
	}
	for _, p := range []string{fresh, filepath.Join(dir, "keep")} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s removed: %v", p, err)
		}
	}
}

func TestService_StartExportCleanup(t *testing.T) {
	cfg := testConfig(t)
	s := newTestService(t, cfg, &fakeQuerier{}, nil)

	t.Run("disabled returns immediately", func(t *testing.T) {
		done := make(chan struct{})
		go func() {
			s.StartExportCleanup(context.Background(), CleanupConfig{})
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("disabled cleanup did not return")
		}
	})

	t.Run("stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			s.StartExportCleanup(ctx, CleanupConfig{Retention: time.Hour, CheckInterval: 10 * time.Millisecond})
			close(done)
		}()

		time.Sleep(30 * time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("cleanup did not stop after cancel")
		}
	})
}
