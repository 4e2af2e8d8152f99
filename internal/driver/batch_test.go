package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"nwnsc/internal/compiler"
	"nwnsc/internal/resource"
)

func TestBatchCompilesIndependentFiles(t *testing.T) {
	loader := resource.NewMapLoader(map[string][]byte{
		"a": []byte(`void main() { int x = 1; }`),
		"b": []byte(`void main() { int x = 2; }`),
		"c": []byte(`void main() { int x = 1 / 0; }`), // division by a constant zero: sema should still pass, codegen just emits a runtime DIV
	})
	c := compiler.New(compiler.Options{Loader: loader})

	dir := t.TempDir()
	res, err := Batch(context.Background(), c, []string{"a", "b", "c"}, Options{OutputDir: dir, ContinueOnError: true})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res.Files))
	}
	for _, f := range res.Files {
		if f.Err != nil {
			t.Fatalf("file %s: %v", f.Name, f.Err)
		}
		if f.Result.Failed {
			t.Fatalf("file %s: unexpected compile failure: %v", f.Name, f.Result.Diags.Items())
		}
		if _, statErr := os.Stat(filepath.Join(dir, f.Name+".ncs")); statErr != nil {
			t.Fatalf("expected %s.ncs written: %v", f.Name, statErr)
		}
	}
}

func TestBatchReportsFailedFilesWithoutStopping(t *testing.T) {
	loader := resource.NewMapLoader(map[string][]byte{
		"good": []byte(`void main() { int x = 1; }`),
		"bad":  []byte(`void main() { int x = ; }`),
	})
	c := compiler.New(compiler.Options{Loader: loader})

	res, err := Batch(context.Background(), c, []string{"good", "bad"}, Options{ContinueOnError: true})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if !res.Failed {
		t.Fatalf("expected the batch to report a failure")
	}
	var sawGoodDone bool
	for _, f := range res.Files {
		if f.Name == "good" && f.Result != nil && !f.Result.Failed {
			sawGoodDone = true
		}
	}
	if !sawGoodDone {
		t.Fatalf("expected the good file to still compile despite bad's failure")
	}
}

func TestBatchEmitsEvents(t *testing.T) {
	loader := resource.NewMapLoader(map[string][]byte{
		"a": []byte(`void main() {}`),
	})
	c := compiler.New(compiler.Options{Loader: loader})

	events := make(chan Event, 16)
	_, err := Batch(context.Background(), c, []string{"a"}, Options{Events: events})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}

	var sawDone bool
	for ev := range events {
		if ev.File == "a" && ev.Stage == StageDone {
			sawDone = true
		}
	}
	if !sawDone {
		t.Fatalf("expected a StageDone event for file a")
	}
}
