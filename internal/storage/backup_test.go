package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestBackupChainCaptureMissingTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.json")
	got, err := NewBackupChain(path, 3).Capture()
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if got != "" {
		t.Errorf("Capture of missing target = %q, want empty path", got)
	}
}

func TestBackupChainCapturePreservesBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.json")
	if err := os.WriteFile(path, []byte(`["snapshot"]`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	backupPath, err := NewBackupChain(path, 3).Capture()
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	data, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != `["snapshot"]` {
		t.Errorf("backup contents = %q", data)
	}
}

func TestBackupChainRetentionBound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.json")
	chain := NewBackupChain(path, 2)

	var oldest string
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte(fmt.Sprintf(`["v%d"]`, i)), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		p, err := chain.Capture()
		if err != nil {
			t.Fatalf("Capture %d: %v", i, err)
		}
		if i == 0 {
			oldest = p
		}
	}

	backups, err := chain.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("got %d backups, want retention bound of 2", len(backups))
	}
	if _, err := os.Stat(oldest); !os.IsNotExist(err) {
		t.Errorf("oldest backup %s should have been pruned", oldest)
	}

	// The newest snapshot survives and holds the latest pre-capture bytes.
	data, _ := os.ReadFile(backups[1].Path)
	if string(data) != `["v4"]` {
		t.Errorf("newest backup contents = %q, want v4", data)
	}
}

func TestBackupChainListSortedOldestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.json")
	chain := NewBackupChain(path, 10)

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(`[]`), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, err := chain.Capture(); err != nil {
			t.Fatalf("Capture: %v", err)
		}
	}

	backups, err := chain.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("got %d backups, want 3", len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].Seq <= backups[i-1].Seq {
			t.Errorf("backups out of order: seq[%d]=%d, seq[%d]=%d", i-1, backups[i-1].Seq, i, backups[i].Seq)
		}
	}
}

func TestBackupChainListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "todo.json")
	chain := NewBackupChain(path, 3)

	if err := os.WriteFile(path+".bak.notanumber", []byte(`x`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	backups, err := chain.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("foreign file was listed as a backup: %+v", backups)
	}
}

func TestBackupChainLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.json")
	chain := NewBackupChain(path, 3)

	if _, ok := chain.Latest(); ok {
		t.Error("Latest should report no backups initially")
	}

	if err := os.WriteFile(path, []byte(`[]`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var last string
	for i := 0; i < 3; i++ {
		p, err := chain.Capture()
		if err != nil {
			t.Fatalf("Capture: %v", err)
		}
		last = p
	}

	latest, ok := chain.Latest()
	if !ok || latest != last {
		t.Errorf("Latest = %q, %v; want %q, true", latest, ok, last)
	}
}
