package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport"
	gitssh "github.com/go-git/go-git/v6/plumbing/transport/ssh"
)

// GoGit is the go-git backed Backend.
type GoGit struct{}

// NewGoGit returns the production backend.
func NewGoGit() *GoGit { return &GoGit{} }

// Open opens the repository at path.
func (GoGit) Open(path string) (Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	bare := false
	if _, err := repo.Worktree(); err != nil {
		if !errors.Is(err, git.ErrIsBareRepository) {
			return nil, fmt.Errorf("%w: %w", ErrBackend, err)
		}
		bare = true
	}
	return &gogitRepo{repo: repo, path: path, bare: bare}, nil
}

type gogitRepo struct {
	repo *git.Repository
	path string
	bare bool
}

func (r *gogitRepo) IsBare() bool { return r.bare }

func (r *gogitRepo) Head() (HeadRef, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return HeadRef{Unborn: true}, nil
		}
		return HeadRef{}, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return HeadRef{Branch: head.Name().Short()}, nil
}

func (r *gogitRepo) Status(opts StatusOptions) ([]StatusEntry, error) {
	if r.bare {
		return nil, ErrBareRepository
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	entries := make([]StatusEntry, 0, len(status))
	for path, fs := range status {
		flags := statusFlags(fs)
		if flags == 0 {
			continue
		}
		if !opts.IncludeUntracked && flags == WorktreeNew {
			continue
		}
		if !opts.IncludeIgnored && flags.Has(Ignored) {
			continue
		}
		entries = append(entries, StatusEntry{Path: path, Flags: flags})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func statusFlags(fs *git.FileStatus) Status {
	var flags Status
	switch fs.Staging {
	case git.Added:
		flags |= IndexNew
	case git.Modified:
		flags |= IndexModified
	case git.Deleted:
		flags |= IndexDeleted
	case git.Renamed, git.Copied:
		flags |= IndexRenamed
	case git.UpdatedButUnmerged:
		flags |= Conflicted
	}
	switch fs.Worktree {
	case git.Untracked:
		flags |= WorktreeNew
	case git.Modified:
		flags |= WorktreeModified
	case git.Deleted:
		flags |= WorktreeDeleted
	case git.Renamed:
		flags |= WorktreeRenamed
	case git.UpdatedButUnmerged:
		flags |= Conflicted
	}
	return flags
}

func (r *gogitRepo) Remote(name string) (Remote, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrRemoteNotFound, name)
		}
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return &gogitRemote{repo: r, remote: remote}, nil
}

// refTips snapshots every hash reference in the repository.
func (r *gogitRepo) refTips() (map[string]string, error) {
	iter, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	tips := make(map[string]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() == plumbing.HashReference {
			tips[ref.Name().String()] = ref.Hash().String()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return tips, nil
}

type fetchedRef struct {
	name string
	hash string
}

type gogitRemote struct {
	repo    *gogitRepo
	remote  *git.Remote
	stats   TransferProgress
	tips    []TipUpdate
	fetched []fetchedRef
}

func (r *gogitRemote) url() string {
	if urls := r.remote.Config().URLs; len(urls) > 0 {
		return urls[0]
	}
	return ""
}

// Download fetches from the remote. go-git surfaces server progress as an
// io.Writer sideband stream and applies ref updates itself, so the
// structured callbacks are derived here: transfer counters by interpreting
// the sideband text, tip updates by diffing the reference set around the
// fetch.
func (r *gogitRemote) Download(ctx context.Context, creds CredentialProvider, cb Callbacks) error {
	auth, err := r.auth(creds)
	if err != nil {
		return err
	}
	before, err := r.repo.refTips()
	if err != nil {
		return err
	}

	parser := newProgressParser(func(p TransferProgress) {
		r.stats = p
		if cb.TransferProgress != nil {
			cb.TransferProgress(p)
		}
	})
	var progress io.Writer = parser
	if cb.Sideband != nil {
		progress = io.MultiWriter(parser, writerFunc(func(p []byte) (int, error) {
			cb.Sideband(string(p))
			return len(p), nil
		}))
	}

	err = r.remote.FetchContext(ctx, &git.FetchOptions{
		RemoteName: r.remote.Config().Name,
		Auth:       auth,
		Progress:   progress,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}

	after, err := r.repo.refTips()
	if err != nil {
		return err
	}
	r.tips = diffTips(before, after)
	r.fetched = trackingRefs(after, r.remote.Config().Name)
	if cb.UpdateTip != nil {
		for _, tip := range r.tips {
			cb.UpdateTip(tip)
		}
	}
	return nil
}

// auth builds the SSH credential for the remote, but only when the remote
// actually speaks SSH. The provider is not consulted otherwise.
func (r *gogitRemote) auth(creds CredentialProvider) (transport.AuthMethod, error) {
	if creds == nil {
		return nil, nil
	}
	url := r.url()
	ep, err := transport.NewEndpoint(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	if ep.Scheme != "ssh" {
		return nil, nil
	}
	user := ""
	if ep.User != nil {
		user = ep.User.Username()
	}
	cred, err := creds.Provide(url, user)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	keys, err := gitssh.NewPublicKeysFromFile(cred.Username, cred.PrivateKeyPath, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return keys, nil
}

func (r *gogitRemote) Stats() TransferProgress { return r.stats }

// Disconnect is a no-op: go-git tears the transport session down when the
// fetch returns.
func (r *gogitRemote) Disconnect() error { return nil }

// UpdateTips records FETCH_HEAD from the remote-tracking refs snapshotted
// by the last Download. git rewrites FETCH_HEAD on every fetch, moved tips
// or not; go-git applies ref updates during the fetch itself but leaves
// FETCH_HEAD untouched.
func (r *gogitRemote) UpdateTips(flags UpdateTipsFlags) error {
	if flags&UpdateFetchHead == 0 || len(r.fetched) == 0 {
		return nil
	}
	var b strings.Builder
	for _, ref := range r.fetched {
		fmt.Fprintf(&b, "%s\t\t%s of %s\n", ref.hash, ref.name, r.url())
	}
	path := filepath.Join(gitDir(r.repo.path), "FETCH_HEAD")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return nil
}

// trackingRefs selects one remote's tracking refs from a snapshot: the
// set FETCH_HEAD records after a fetch.
func trackingRefs(tips map[string]string, remote string) []fetchedRef {
	prefix := "refs/remotes/" + remote + "/"
	var refs []fetchedRef
	for name, hash := range tips {
		if strings.HasPrefix(name, prefix) {
			refs = append(refs, fetchedRef{name: name, hash: hash})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].name < refs[j].name })
	return refs
}

func diffTips(before, after map[string]string) []TipUpdate {
	var updates []TipUpdate
	for name, hash := range after {
		old, existed := before[name]
		if existed && old == hash {
			continue
		}
		updates = append(updates, TipUpdate{RefName: name, OldHash: old, NewHash: hash})
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].RefName < updates[j].RefName })
	return updates
}

// gitDir resolves the repository's metadata directory, following a .git
// file (linked worktrees, submodules) when present.
func gitDir(path string) string {
	dotgit := filepath.Join(path, ".git")
	data, err := os.ReadFile(dotgit)
	if err != nil {
		return dotgit
	}
	if rest, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "gitdir:"); ok {
		dir := strings.TrimSpace(rest)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(path, dir)
		}
		return dir
	}
	return dotgit
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
