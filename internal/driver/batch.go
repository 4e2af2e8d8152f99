// Package driver implements the CLI-facing batch layer spec.md calls out
// of scope for the compiler itself: output file writing and parallel
// compilation of independent source files (the caller supplies the
// resource names; no wildcard expansion is done here),
// each with its own internal/compiler.Compiler call (spec.md §5: "Multiple
// compiler instances may coexist ... provided each owns its own include
// cache and symbol arenas").
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"nwnsc/internal/compiler"
)

// Stage is one step of compiling a single file, used to drive the
// progress UI.
type Stage uint8

const (
	StageQueued Stage = iota
	StageCompiling
	StageWriting
	StageDone
	StageError
)

// Event reports one file's stage transition, consumed by cmd/nwnsc's
// batch progress view.
type Event struct {
	File  string
	Stage Stage
}

// Options configures one Batch run (spec.md §9's CLI surface, plus the
// quiet/continue-on-error/stop-on-first-error flags original_source/'s
// nwnsc.cpp carries that the distilled spec names but does not define the
// interaction of).
type Options struct {
	// OutputDir receives each compiled file's .ncs (and .ndb when the
	// compiler was built with Debug) alongside the source's resource name.
	// Empty means write next to nothing: callers inspect Results instead.
	OutputDir string

	// Jobs caps concurrent compiles; 0 means GOMAXPROCS.
	Jobs int

	// Quiet suppresses the per-file "compiled foo -> foo.ncs" line;
	// failures are still reported regardless.
	Quiet bool

	// ContinueOnError keeps compiling remaining files after one fails.
	// When false, the first failing file stops the whole batch.
	ContinueOnError bool

	// StopOnFirstError stops the batch the moment any file produces a
	// diagnostic at SevError or above — original_source/nwnsc.cpp's
	// NscDFlag_StopOnError. Files not yet started are skipped; a file
	// already compiling runs to completion.
	StopOnFirstError bool

	// Events, if non-nil, receives one Event per stage transition per
	// file; Batch closes it before returning.
	Events chan<- Event
}

// FileResult is one file's outcome within a Batch run.
type FileResult struct {
	Name   string
	Result *compiler.Result
	Err    error
}

// Result is the outcome of a whole Batch run.
type Result struct {
	Files  []FileResult
	Failed bool
}

// Batch compiles every name in names through c, honoring opts. Names are
// independent: Batch does not deduplicate or order them beyond what the
// caller already decided, matching the teacher's index-is-unique-so-no-
// mutex-needed parallel pattern.
func Batch(ctx context.Context, c *compiler.Compiler, names []string, opts Options) (Result, error) {
	if opts.Events != nil {
		defer close(opts.Events)
	}
	if len(names) == 0 {
		return Result{}, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if jobs > len(names) {
		jobs = len(names)
	}

	results := make([]FileResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	emit := func(file string, stage Stage) {
		if opts.Events == nil {
			return
		}
		select {
		case opts.Events <- Event{File: file, Stage: stage}:
		case <-gctx.Done():
		}
	}

	for i, name := range names {
		g.Go(func(i int, name string) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				emit(name, StageCompiling)
				res, err := c.Compile(name)
				if err != nil {
					results[i] = FileResult{Name: name, Err: err}
					emit(name, StageError)
					if opts.StopOnFirstError || !opts.ContinueOnError {
						return err
					}
					return nil
				}

				failed := res.Failed
				if !failed && opts.OutputDir != "" {
					emit(name, StageWriting)
					if werr := writeOutputs(opts.OutputDir, name, res); werr != nil {
						results[i] = FileResult{Name: name, Result: res, Err: werr}
						emit(name, StageError)
						if opts.StopOnFirstError || !opts.ContinueOnError {
							return werr
						}
						return nil
					}
				}

				results[i] = FileResult{Name: name, Result: res}
				if failed {
					emit(name, StageError)
					if opts.StopOnFirstError || !opts.ContinueOnError {
						return fmt.Errorf("%s: compilation failed", name)
					}
				} else {
					emit(name, StageDone)
				}
				return nil
			}
		}(i, name))
	}

	waitErr := g.Wait()

	out := Result{Files: results}
	for _, r := range results {
		if r.Err != nil || (r.Result != nil && r.Result.Failed) {
			out.Failed = true
			if !opts.ContinueOnError && !opts.StopOnFirstError {
				break
			}
		}
	}
	if waitErr != nil {
		out.Failed = true
	}
	return out, nil
}

func writeOutputs(dir, name string, res *compiler.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", dir, err)
	}
	ncsPath := filepath.Join(dir, name+".ncs")
	if err := os.WriteFile(ncsPath, res.NCS, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ncsPath, err)
	}
	if len(res.NDB) > 0 {
		ndbPath := filepath.Join(dir, name+".ndb")
		if err := os.WriteFile(ndbPath, res.NDB, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", ndbPath, err)
		}
	}
	return nil
}
