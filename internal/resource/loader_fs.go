package resource

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// FSLoader resolves a resource name against an ordered list of include
// directories, then the current directory, falling back to a per-user
// directory and then an installation directory, mirroring the CLI
// surface's -i flag and its install-dir/user-dir pair (spec.md §9 "CLI
// surface (driver, external)"). Lookup is first match wins: earlier
// entries in IncludeDirs shadow later ones, and all of them shadow the
// current directory, which in turn shadows UserDir/InstallDir.
//
// FSLoader holds no mutable state after construction, so it is safe for
// concurrent Load calls out of the box.
type FSLoader struct {
	IncludeDirs []string
	UserDir     string
	InstallDir  string
}

func (l *FSLoader) Load(name string, kind Type) ([]byte, error) {
	ext := extensionFor(kind)
	fileName := name + ext

	dirs := make([]string, 0, len(l.IncludeDirs)+3)
	dirs = append(dirs, l.IncludeDirs...)
	dirs = append(dirs, ".")
	if l.UserDir != "" {
		dirs = append(dirs, l.UserDir)
	}
	if l.InstallDir != "" {
		dirs = append(dirs, l.InstallDir)
	}

	for _, dir := range dirs {
		path := filepath.Join(dir, fileName)
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, &IOError{Name: name, Kind: kind, Err: err}
		}
	}
	return nil, &ErrNotFound{Name: name, Kind: kind}
}

func extensionFor(kind Type) string {
	switch kind {
	case TypeNCS:
		return ".ncs"
	case TypeNDB:
		return ".ndb"
	default:
		return ".nss"
	}
}

// resourceKey normalizes a resource name the way spec.md §9's "case-insensitive
// identifier" rule requires: lowercase, trimmed to the 16-character limit a
// real resource name is bound by.
func resourceKey(name string) string {
	name = strings.ToLower(name)
	if len(name) > 16 {
		name = name[:16]
	}
	return name
}
