// Package report renders per-repository reports: the identity title line,
// working-tree status, and fetch progress.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"multigit/internal/config"
	"multigit/internal/vcs"
)

var (
	titleName   = color.New(color.FgGreen, color.Bold)
	titleBranch = color.New(color.FgCyan)
	titlePath   = color.New(color.FgBlue)
	titleDesc   = color.New(color.FgWhite, color.Italic)
	bareName    = color.New(color.FgRed, color.Bold)
	bareDesc    = color.New(color.FgYellow)
	okMessage   = color.New(color.FgGreen)
)

// Reporter renders repository reports against a vcs.Backend. Out receives
// the reports, ErrOut the bare-repository warnings; both default to being
// injected so tests can capture them.
type Reporter struct {
	Backend vcs.Backend
	Creds   vcs.CredentialProvider
	Out     io.Writer
	ErrOut  io.Writer
}

// Title opens the repository and prints its header line.
func (r *Reporter) Title(repo config.Repository) error {
	handle, err := r.Backend.Open(repo.Location)
	if err != nil {
		return err
	}
	return r.title(repo, handle)
}

// title prints `<name>(<branch>): <location>` and the description on an
// already opened handle. A bare repository gets a visible warning before
// the error aborts the rest of this repository's operation.
func (r *Reporter) title(repo config.Repository, handle vcs.Repository) error {
	if handle.IsBare() {
		bareName.Fprintf(r.ErrOut, "%s: cannot use bare repository\n", repo.DisplayName())
		bareDesc.Fprint(r.ErrOut, describe(repo))
		fmt.Fprint(r.ErrOut, " - ")
		titlePath.Fprintln(r.ErrOut, repo.Location)
		return fmt.Errorf("%w: %s", vcs.ErrBareRepository, repo.Location)
	}

	head, err := handle.Head()
	if err != nil {
		fmt.Fprintf(r.ErrOut, "can't get HEAD: %v\n", err)
		return err
	}
	branch := head.Branch
	if head.Unborn || branch == "" {
		branch = "no branch"
	}

	titleName.Fprint(r.Out, repo.DisplayName())
	fmt.Fprint(r.Out, "(")
	titleBranch.Fprint(r.Out, branch)
	fmt.Fprint(r.Out, "): ")
	titlePath.Fprintln(r.Out, repo.Location)
	titleDesc.Fprintln(r.Out, describe(repo))
	return nil
}

func describe(repo config.Repository) string {
	if repo.Description == "" {
		return "No description"
	}
	return repo.Description
}

type flusher interface{ Flush() error }

// flush pushes buffered output out so long-running operations show live
// progress. os.Stdout is unbuffered; this matters for wrapped writers.
func (r *Reporter) flush() {
	if f, ok := r.Out.(flusher); ok {
		f.Flush()
	}
}
