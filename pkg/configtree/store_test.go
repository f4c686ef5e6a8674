package configtree

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatal(err)
	}

	tree, err := NewFileStore(path, false).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !tree.Exists("protocols", "rip", "interface", "eth0") {
		t.Error("loaded tree is missing protocols rip interface eth0")
	}
}

func TestFileStoreMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "effective.yaml")

	if _, err := NewFileStore(path, false).Load(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}

	tree, err := NewFileStore(path, true).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() with AllowMissing error = %v", err)
	}
	if len(tree.ListNodes()) != 0 {
		t.Errorf("missing file should load as empty tree, got %v", tree.ListNodes())
	}
}

func TestFileStoreSaveSubtree(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "effective.yaml")
	store := NewFileStore(path, true)

	seed := mustParse(t, "system:\n  host-name: r1\n")
	if err := store.SaveSubtree(ctx, seed, "system"); err != nil {
		t.Fatalf("SaveSubtree(system) error = %v", err)
	}

	proposed := mustParse(t, sampleYAML)
	if err := store.SaveSubtree(ctx, proposed, "protocols", "rip"); err != nil {
		t.Fatalf("SaveSubtree(protocols rip) error = %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if v, _ := got.ReturnValue("system", "host-name"); v != "r1" {
		t.Errorf("unrelated subtree lost, host-name = %q", v)
	}
	if !got.Exists("protocols", "rip", "interface", "eth0", "split-horizon", "disable") {
		t.Error("saved subtree is missing the valueless leaf")
	}
	if got.Exists("policy") {
		t.Error("only the requested subtree should be saved")
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"top level sequence", "- a\n- b\n"},
		{"sequence of maps", "protocols:\n  rip:\n    network:\n      - a: b\n"},
		{"invalid yaml", "protocols: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseYAML([]byte(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}

	tree, err := ParseYAML(nil)
	if err != nil || len(tree.ListNodes()) != 0 {
		t.Errorf("empty document should give empty tree, got %v, %v", tree, err)
	}
}
