package cmd

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/pocketbrain/wacore/internal/state"
	"github.com/pocketbrain/wacore/internal/store"
)

func TestRunInit_SeedsRootUserOnDisk(t *testing.T) {
	wd, _ := os.Getwd()
	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	os.Setenv("INITIAL_ROOT_USER_ID", "root-1")
	t.Cleanup(func() { os.Unsetenv("INITIAL_ROOT_USER_ID") })

	if err := runInit(); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	db, err := store.Open(".data")
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer db.Close()

	doc, err := db.Load(context.Background(), "root-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !doc.Root.IsRoot("root-1") {
		t.Fatalf("root user not seeded on disk")
	}
}

func TestRunInit_IsIdempotent(t *testing.T) {
	wd, _ := os.Getwd()
	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	os.Setenv("INITIAL_ROOT_USER_ID", "root-1")
	t.Cleanup(func() { os.Unsetenv("INITIAL_ROOT_USER_ID") })

	if err := runInit(); err != nil {
		t.Fatalf("first runInit: %v", err)
	}
	if err := runInit(); err != nil {
		t.Fatalf("second runInit: %v", err)
	}

	db, err := store.Open(".data")
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer db.Close()

	mgr, err := state.NewManager(context.Background(), db, "root-1", slog.Default())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	var count int
	mgr.ReadOnly(func(doc *state.Document) {
		count = len(doc.Root.RootUsers)
	})
	if count != 1 {
		t.Fatalf("RootUsers count = %d; want 1", count)
	}
}
