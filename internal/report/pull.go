package report

import "multigit/internal/config"

// Pull reports the title only. The merge step is intentionally not
// implemented; the command exists so a repository list can be walked with
// the same guards as the other operations.
func (r *Reporter) Pull(repo config.Repository) error {
	return r.Title(repo)
}
