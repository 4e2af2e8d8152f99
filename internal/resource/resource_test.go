package resource

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMapLoaderIsCaseInsensitive(t *testing.T) {
	m := NewMapLoader(map[string][]byte{"Nw_I0_Generic": []byte("void main() {}")})

	data, err := m.Load("nw_i0_generic", TypeNSS)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "void main() {}" {
		t.Fatalf("got %q", data)
	}
}

func TestMapLoaderReportsNotFound(t *testing.T) {
	m := NewMapLoader(nil)
	_, err := m.Load("missing", TypeNSS)
	var nf *ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected *ErrNotFound, got %v", err)
	}
}

func TestFSLoaderChecksDirsInOrder(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	if err := os.WriteFile(filepath.Join(dirB, "foo.nss"), []byte("from b"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dirA, "foo.nss"), []byte("from a"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := &FSLoader{IncludeDirs: []string{dirA, dirB}}
	data, err := l.Load("foo", TypeNSS)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "from a" {
		t.Fatalf("expected earlier dir to shadow later, got %q", data)
	}
}

func TestFSLoaderDefaultsToCurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "foo.nss"), []byte("from cwd"), 0o644); err != nil {
		t.Fatal(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	l := &FSLoader{}
	data, err := l.Load("foo", TypeNSS)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "from cwd" {
		t.Fatalf("got %q", data)
	}
}

func TestFSLoaderFallsBackToUserThenInstallDir(t *testing.T) {
	userDir := t.TempDir()
	installDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(installDir, "bar.nss"), []byte("install"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := &FSLoader{UserDir: userDir, InstallDir: installDir}
	data, err := l.Load("bar", TypeNSS)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "install" {
		t.Fatalf("got %q", data)
	}
}

func TestFSLoaderNotFound(t *testing.T) {
	l := &FSLoader{IncludeDirs: []string{t.TempDir()}}
	_, err := l.Load("nope", TypeNSS)
	var nf *ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected *ErrNotFound, got %v", err)
	}
}

func TestCachingLoaderServesFromCacheWithoutCallingNextAgain(t *testing.T) {
	calls := 0
	next := LoaderFunc(func(name string, kind Type) ([]byte, error) {
		calls++
		return []byte("body"), nil
	})
	c := NewCachingLoader(next)

	for i := 0; i < 3; i++ {
		data, err := c.Load("nw_i0_generic", TypeNSS)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if string(data) != "body" {
			t.Fatalf("got %q", data)
		}
	}
	if calls != 1 {
		t.Fatalf("expected the underlying loader to run once, ran %d times", calls)
	}
}

func TestCachingLoaderRoundTripsThroughDisk(t *testing.T) {
	next := NewMapLoader(map[string][]byte{"inc": []byte("#define X 1")})
	c := NewCachingLoader(next)
	if _, err := c.Load("inc", TypeNSS); err != nil {
		t.Fatalf("Load: %v", err)
	}

	path := filepath.Join(t.TempDir(), "cache.msgpack")
	if err := c.SaveToDisk(path); err != nil {
		t.Fatalf("SaveToDisk: %v", err)
	}

	c2 := NewCachingLoader(LoaderFunc(func(name string, kind Type) ([]byte, error) {
		t.Fatalf("did not expect the underlying loader to be consulted after a disk-cache hit")
		return nil, nil
	}))
	if err := c2.LoadFromDisk(path); err != nil {
		t.Fatalf("LoadFromDisk: %v", err)
	}
	data, err := c2.Load("inc", TypeNSS)
	if err != nil {
		t.Fatalf("Load after restore: %v", err)
	}
	if string(data) != "#define X 1" {
		t.Fatalf("got %q", data)
	}
}

func TestCachingLoaderDetectsStaleness(t *testing.T) {
	c := NewCachingLoader(NewMapLoader(map[string][]byte{"inc": []byte("old")}))
	if _, err := c.Load("inc", TypeNSS); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Stale("inc", TypeNSS, []byte("old")) {
		t.Fatalf("expected identical bytes to not be stale")
	}
	if !c.Stale("inc", TypeNSS, []byte("new")) {
		t.Fatalf("expected changed bytes to be stale")
	}
}

func TestCachingLoaderClearForgetsEntries(t *testing.T) {
	calls := 0
	next := LoaderFunc(func(name string, kind Type) ([]byte, error) {
		calls++
		return []byte("body"), nil
	})
	c := NewCachingLoader(next)
	if _, err := c.Load("x", TypeNSS); err != nil {
		t.Fatal(err)
	}
	c.Clear()
	if _, err := c.Load("x", TypeNSS); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected Clear to force a re-fetch, calls=%d", calls)
	}
}
