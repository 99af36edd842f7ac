package report

import (
	"fmt"

	"multigit/internal/config"
	"multigit/internal/vcs"
)

// classify maps one entry's flag set to its two status columns: index
// state first, worktree state second. Within a column the first matching
// category wins (added, modified, deleted, renamed, type-changed), a
// deliberate tie-break for backends that report composite flags. An
// untracked path shows '?' in both columns, and the ignored flag
// overrides everything with "!!".
func classify(flags vcs.Status) (index, worktree byte) {
	index, worktree = ' ', ' '

	switch {
	case flags.Has(vcs.IndexNew):
		index = 'A'
	case flags.Has(vcs.IndexModified):
		index = 'M'
	case flags.Has(vcs.IndexDeleted):
		index = 'D'
	case flags.Has(vcs.IndexRenamed):
		index = 'R'
	case flags.Has(vcs.IndexTypeChange):
		index = 'T'
	}

	switch {
	case flags.Has(vcs.WorktreeNew):
		worktree = '?'
		if index == ' ' {
			index = '?'
		}
	case flags.Has(vcs.WorktreeModified):
		worktree = 'M'
	case flags.Has(vcs.WorktreeDeleted):
		worktree = 'D'
	case flags.Has(vcs.WorktreeRenamed):
		worktree = 'R'
	case flags.Has(vcs.WorktreeTypeChange):
		worktree = 'T'
	}

	if flags.Has(vcs.Ignored) {
		index, worktree = '!', '!'
	}
	return index, worktree
}

// Status prints the title followed by one line per changed path, or a
// single affirmative message when the working tree is clean.
func (r *Reporter) Status(repo config.Repository) error {
	handle, err := r.Backend.Open(repo.Location)
	if err != nil {
		return err
	}
	if err := r.title(repo, handle); err != nil {
		return err
	}

	entries, err := handle.Status(vcs.StatusOptions{IncludeUntracked: true})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		okMessage.Fprintln(r.Out, "Nothing changed in this repository")
		return nil
	}
	for _, entry := range entries {
		index, worktree := classify(entry.Flags)
		path := entry.Path
		if path == "" {
			path = "None"
		}
		fmt.Fprintf(r.Out, "  - %c%c  %s\n", index, worktree, path)
	}
	return nil
}
