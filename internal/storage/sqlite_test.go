//go:build sqlite

package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func TestSQLiteStoreContract(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "helix.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "helix.db")

	first := NewSQLiteStore(dbPath)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := first.SaveRun(ctx, sampleRun("run-1", 10)); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := NewSQLiteStore(dbPath)
	if err := second.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() {
		_ = second.Close()
	})

	run, ok, err := second.GetRun(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get run after reopen: ok=%v err=%v", ok, err)
	}
	if run.Scape != "sphere" || run.Generations != 12 {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "helix.db"))
	if _, _, err := store.GetRun(context.Background(), "x"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		t.Fatal("expected missing path error")
	}
}

func TestSQLiteStoreConcurrentBundles(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "helix.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	const writers = 24
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.SaveRunBundle(ctx, sampleBundle(fmt.Sprintf("run-%02d", i), int64(i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent save: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != writers {
		t.Fatalf("expected %d runs, got %d", writers, len(runs))
	}
	for _, run := range runs {
		if _, ok, err := store.GetChampion(ctx, run.ID); err != nil || !ok {
			t.Fatalf("champion for %s: ok=%v err=%v", run.ID, ok, err)
		}
	}
}

func TestSQLiteDSNAddsBusyTimeout(t *testing.T) {
	if got := sqliteDSN("helix.db"); got != "helix.db?_pragma=busy_timeout(5000)" {
		t.Fatalf("unexpected dsn: %s", got)
	}
	if got := sqliteDSN("file:helix.db?mode=rwc"); got != "file:helix.db?mode=rwc&_pragma=busy_timeout(5000)" {
		t.Fatalf("unexpected dsn: %s", got)
	}
}
