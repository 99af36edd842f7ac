// Package cli dispatches subcommands across the configured repositories.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"multigit/internal/config"
	"multigit/internal/report"
	"multigit/internal/vcs"
	"multigit/internal/worker"
)

var errColor = color.New(color.FgRed)

// Options carries everything Run needs beyond the repository list.
// Backend, Out and ErrOut default to the production backend and the
// process streams; tests inject fakes and buffers.
type Options struct {
	Command string
	Jobs    int
	Paths   config.Paths
	Backend vcs.Backend
	Out     io.Writer
	ErrOut  io.Writer
}

type opFunc func(ctx context.Context, r *report.Reporter, repo config.Repository) error

// Run executes one subcommand over every configured repository in
// declaration order. A repository's failure is reported to ErrOut and
// never stops the run. Exit codes: 0 every repository succeeded, 1 some
// failed, 2 usage error.
func Run(ctx context.Context, cfg *config.Config, opts Options) int {
	if opts.Backend == nil {
		opts.Backend = vcs.NewGoGit()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}

	op, ok := operation(opts.Command)
	if !ok {
		fmt.Fprintf(opts.ErrOut, "unknown command %q\n", opts.Command)
		return 2
	}

	creds := vcs.SSHKeyProvider{KeyPath: opts.Paths.SSHKeyPath}

	if opts.Command == "fetch" && opts.Jobs > 1 {
		return runParallel(ctx, cfg.Repositories, opts, creds, op)
	}

	reporter := &report.Reporter{
		Backend: opts.Backend,
		Creds:   creds,
		Out:     opts.Out,
		ErrOut:  opts.ErrOut,
	}
	failed := 0
	for _, repo := range cfg.Repositories {
		if ctx.Err() != nil {
			break
		}
		if err := op(ctx, reporter, repo); err != nil {
			errColor.Fprintf(opts.ErrOut, "%s: %v\n", repo.DisplayName(), err)
			failed++
		}
	}
	// A cancelled run skipped repositories; it must not report success.
	if ctx.Err() != nil {
		errColor.Fprintf(opts.ErrOut, "interrupted: %v\n", ctx.Err())
		return 1
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func operation(command string) (opFunc, bool) {
	switch command {
	case "list":
		return func(_ context.Context, r *report.Reporter, repo config.Repository) error {
			return r.Title(repo)
		}, true
	case "status":
		return func(_ context.Context, r *report.Reporter, repo config.Repository) error {
			return r.Status(repo)
		}, true
	case "fetch":
		return func(ctx context.Context, r *report.Reporter, repo config.Repository) error {
			return r.Fetch(ctx, repo)
		}, true
	case "pull":
		return func(_ context.Context, r *report.Reporter, repo config.Repository) error {
			return r.Pull(repo)
		}, true
	}
	return nil, false
}

// runParallel fetches with bounded concurrency. Every repository renders
// into its own buffers; completed results flush in declaration order so
// console output reads exactly like a sequential run.
func runParallel(ctx context.Context, repos []config.Repository, opts Options, creds vcs.CredentialProvider, op opFunc) int {
	pool, err := worker.NewPool(opts.Jobs, len(repos))
	if err != nil {
		fmt.Fprintf(opts.ErrOut, "%v\n", err)
		return 2
	}
	pool.Start(ctx, func(ctx context.Context, repo config.Repository, out, errOut io.Writer) error {
		r := &report.Reporter{
			Backend: opts.Backend,
			Creds:   creds,
			Out:     out,
			ErrOut:  errOut,
		}
		return op(ctx, r, repo)
	})

	results := make(chan worker.Result, len(repos))
	for i, repo := range repos {
		pool.Submit(i, repo, results)
	}

	pending := make(map[int]worker.Result, len(repos))
	next := 0
	failed := 0
	for range repos {
		res := <-results
		pending[res.Index] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			opts.Out.Write(r.Out)
			opts.ErrOut.Write(r.ErrOut)
			if r.Err != nil {
				errColor.Fprintf(opts.ErrOut, "%s: %v\n", r.Repo.DisplayName(), r.Err)
				failed++
			}
		}
	}
	pool.Close()

	if failed > 0 {
		return 1
	}
	return 0
}
