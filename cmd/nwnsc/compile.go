package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	tea "github.com/charmbracelet/bubbletea"

	"nwnsc/internal/compiler"
	"nwnsc/internal/diag"
	"nwnsc/internal/driver"
	"nwnsc/internal/lexer"
	"nwnsc/internal/resource"
	"nwnsc/internal/ui"
)

var compileCmd = &cobra.Command{
	Use:   "compile [resources...]",
	Short: "compile NWScript source to compiled bytecode",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompile,
}

func init() {
	f := compileCmd.Flags()
	f.StringSliceP("include", "i", nil, "include directory, searched in order (repeatable)")
	f.String("install-dir", "", "engine installation directory, searched last")
	f.String("user-dir", "", "per-user override directory, searched before install-dir")
	f.StringP("output", "o", ".", "directory to write .ncs/.ndb files to")
	f.Bool("no-debug", false, "suppress .ndb debug-symbol output")
	f.Bool("extensions", false, "enable engine-extension grammar")
	f.Int("engine", 174, "NWScript engine version selector (169 or 174)")
	f.String("entry", "", "override the compiled entry-point function name")
	f.Int("jobs", 0, "maximum concurrent compiles (0 = GOMAXPROCS)")
	f.Bool("continue-on-error", true, "keep compiling remaining files after one fails")
	f.Bool("stop-on-first-error", false, "abort the whole batch on the first failing file")
	f.Int("max-diagnostics", 0, "cap diagnostics collected per file (0 = unlimited)")
	f.String("ui", "auto", "progress display (auto|on|off)")
	f.Bool("persist-cache", false, "persist the include cache to <output>/.nwnsc-cache")
	f.String("config", "", "path to an nwnsc.toml project manifest (default: nearest ancestor)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	includeDirs, _ := f.GetStringSlice("include")
	installDir, _ := f.GetString("install-dir")
	userDir, _ := f.GetString("user-dir")
	outputDir, _ := f.GetString("output")
	noDebug, _ := f.GetBool("no-debug")
	extensions, _ := f.GetBool("extensions")
	engine, _ := f.GetInt("engine")
	entry, _ := f.GetString("entry")
	jobs, _ := f.GetInt("jobs")
	continueOnError, _ := f.GetBool("continue-on-error")
	stopOnFirstError, _ := f.GetBool("stop-on-first-error")
	maxDiags, _ := f.GetInt("max-diagnostics")
	uiMode, _ := f.GetString("ui")
	persistCache, _ := f.GetBool("persist-cache")
	configPath, _ := f.GetString("config")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")

	if path, ok, err := resolveConfig(configPath); err != nil {
		return err
	} else if ok {
		cfg, err := driver.LoadConfig(path)
		if err != nil {
			return err
		}
		applyProjectDefaults(cfg, &includeDirs, &installDir, &userDir, &outputDir, &extensions, &engine, &entry, &maxDiags)
	}

	version := lexer.Version174
	if engine == 169 {
		version = lexer.Version169
	}

	var loader resource.Loader = &resource.FSLoader{IncludeDirs: includeDirs, UserDir: userDir, InstallDir: installDir}
	var cache *resource.CachingLoader
	cachePath := filepath.Join(outputDir, ".nwnsc-cache")
	if persistCache {
		cache = resource.NewCachingLoader(loader)
		if err := cache.LoadFromDisk(cachePath); err != nil {
			return err
		}
		loader = cache
	}

	c := compiler.New(compiler.Options{
		Loader:            loader,
		Version:           version,
		Extensions:        extensions,
		Debug:             !noDebug,
		EntryFunc:         entry,
		MaxDiagnostics:    maxDiags,
		PrototypeResource: "nwscript",
	})

	names := make([]string, len(args))
	for i, a := range args {
		names[i] = strings.TrimSuffix(filepath.Base(a), filepath.Ext(a))
	}

	events := make(chan driver.Event, len(names)*4)
	opts := driver.Options{
		OutputDir:        outputDir,
		Jobs:             jobs,
		Quiet:            quiet,
		ContinueOnError:  continueOnError,
		StopOnFirstError: stopOnFirstError,
		Events:           events,
	}

	showUI := shouldShowUI(uiMode)
	var program *tea.Program
	done := make(chan struct{})
	if showUI {
		program = tea.NewProgram(ui.NewProgressModel("compiling", names, events))
		go func() {
			_, _ = program.Run()
			close(done)
		}()
	} else {
		go func() {
			for range events {
			}
			close(done)
		}()
	}

	res, err := driver.Batch(context.Background(), c, names, opts)
	<-done
	if err != nil {
		return err
	}

	reporter := diag.NewTextReporter(os.Stdout, nil)
	reporter.Prefix = "nwnsc"
	reporter.Color = useColor(cmd, os.Stdout)

	for _, fr := range res.Files {
		if fr.Err != nil {
			fmt.Fprintf(os.Stderr, "nwnsc: %s: %v\n", fr.Name, fr.Err)
			continue
		}
		reporter.Files = fr.Result.FileSet
		for _, d := range fr.Result.Diags.Items() {
			reporter.Report(d)
		}
		if !quiet && !fr.Result.Failed {
			fmt.Printf("nwnsc: compiled %s -> %s.ncs\n", fr.Name, fr.Name)
		}
	}

	if persistCache && cache != nil {
		if err := cache.SaveToDisk(cachePath); err != nil {
			return err
		}
	}

	if res.Failed {
		return fmt.Errorf("compilation failed")
	}
	return nil
}

func shouldShowUI(mode string) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}

func resolveConfig(explicit string) (string, bool, error) {
	if explicit != "" {
		return explicit, true, nil
	}
	return driver.FindConfig(".")
}

func applyProjectDefaults(cfg driver.Config, includeDirs *[]string, installDir, userDir, outputDir *string, extensions *bool, engine *int, entry *string, maxDiags *int) {
	cc := cfg.Compile
	if len(*includeDirs) == 0 {
		*includeDirs = cc.IncludeDirs
	}
	if *installDir == "" {
		*installDir = cc.InstallDir
	}
	if *userDir == "" {
		*userDir = cc.UserDir
	}
	if *outputDir == "." && cc.OutputDir != "" {
		*outputDir = cc.OutputDir
	}
	if !*extensions {
		*extensions = cc.Extensions
	}
	if cc.Version != 0 {
		*engine = cc.Version
	}
	if *entry == "" {
		*entry = cc.EntryFunc
	}
	if *maxDiags == 0 {
		*maxDiags = cc.MaxDiagnostics
	}
}
