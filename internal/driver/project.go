package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is nwnsc.toml's shape, mirroring the teacher's surge.toml: a
// project-level place to set once what would otherwise be repeated CLI
// flags across every file in a batch (spec.md §9 "Configuration").
type Config struct {
	Compile CompileConfig `toml:"compile"`
}

// CompileConfig holds the per-project compiler defaults.
type CompileConfig struct {
	Version        int      `toml:"version"`     // 169 or 174
	Extensions     bool     `toml:"extensions"`   // engine-extension grammar
	Debug          bool     `toml:"debug"`        // emit .ndb alongside .ncs
	IncludeDirs    []string `toml:"include_dirs"` // -i equivalents, in order
	InstallDir     string   `toml:"install_dir"`
	UserDir        string   `toml:"user_dir"`
	OutputDir      string   `toml:"output_dir"`
	PersistCache   bool     `toml:"persist_cache"`
	EntryFunc      string   `toml:"entry_func"`
	MaxDiagnostics int      `toml:"max_diagnostics"`
}

// FindConfig walks up from startDir looking for nwnsc.toml, the same
// nearest-ancestor search the teacher's surge.toml lookup performs.
func FindConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("resolving start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "nwnsc.toml")
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate, true, nil
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return "", false, fmt.Errorf("stat %s: %w", candidate, statErr)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadConfig parses path as an nwnsc.toml project manifest.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: parsing TOML: %w", path, err)
	}
	return cfg, nil
}
