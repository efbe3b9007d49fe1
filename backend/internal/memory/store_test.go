package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

type snapshot struct {
	Value int `json:"value"`
}

func TestFileStore_CloseFlushesLatestSnapshot(t *testing.T) {
	dir := t.TempDir()
	fs := newFileStore(dir, zap.NewNop())

	// Rapid saves to the same key; only the last one needs to reach disk
	for i := 1; i <= 5; i++ {
		fs.enqueueSave("k.json", snapshot{Value: i})
	}
	if err := fs.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "k.json"))
	if err != nil {
		t.Fatalf("Snapshot file missing: %v", err)
	}
	var got snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Bad snapshot payload: %v", err)
	}
	if got.Value != 5 {
		t.Errorf("Expected the latest snapshot on disk, got %d", got.Value)
	}
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	fs := newFileStore(t.TempDir(), zap.NewNop())

	var got snapshot
	err := fs.load("missing.json", &got)
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}
	if !isNotExist(err) {
		t.Errorf("Missing file should report not-exist, got %v", err)
	}
}
