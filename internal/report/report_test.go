package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"

	"multigit/internal/config"
	"multigit/internal/vcs"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type fakeBackend struct {
	repos map[string]*fakeRepo
}

func (b *fakeBackend) Open(path string) (vcs.Repository, error) {
	repo, ok := b.repos[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vcs.ErrRepositoryNotFound, path)
	}
	return repo, nil
}

type fakeRepo struct {
	bare      bool
	head      vcs.HeadRef
	headErr   error
	entries   []vcs.StatusEntry
	statusErr error
	remotes   map[string]*fakeRemote

	statusCalls int
	remoteCalls int
}

func (r *fakeRepo) IsBare() bool { return r.bare }

func (r *fakeRepo) Head() (vcs.HeadRef, error) { return r.head, r.headErr }

func (r *fakeRepo) Status(opts vcs.StatusOptions) ([]vcs.StatusEntry, error) {
	r.statusCalls++
	if r.bare {
		return nil, vcs.ErrBareRepository
	}
	return r.entries, r.statusErr
}

func (r *fakeRepo) Remote(name string) (vcs.Remote, error) {
	r.remoteCalls++
	remote, ok := r.remotes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", vcs.ErrRemoteNotFound, name)
	}
	return remote, nil
}

type fakeRemote struct {
	sideband    []string
	progress    []vcs.TransferProgress
	tips        []vcs.TipUpdate
	stats       vcs.TransferProgress
	downloadErr error

	disconnected bool
	tipFlags     vcs.UpdateTipsFlags
}

func (r *fakeRemote) Download(_ context.Context, _ vcs.CredentialProvider, cb vcs.Callbacks) error {
	if r.downloadErr != nil {
		return r.downloadErr
	}
	for _, text := range r.sideband {
		if cb.Sideband != nil {
			cb.Sideband(text)
		}
	}
	for _, p := range r.progress {
		if cb.TransferProgress != nil {
			cb.TransferProgress(p)
		}
	}
	for _, tip := range r.tips {
		if cb.UpdateTip != nil {
			cb.UpdateTip(tip)
		}
	}
	return nil
}

func (r *fakeRemote) Stats() vcs.TransferProgress { return r.stats }

func (r *fakeRemote) Disconnect() error {
	r.disconnected = true
	return nil
}

func (r *fakeRemote) UpdateTips(flags vcs.UpdateTipsFlags) error {
	r.tipFlags |= flags
	return nil
}

func newReporter(repos map[string]*fakeRepo) (*Reporter, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	r := &Reporter{
		Backend: &fakeBackend{repos: repos},
		Creds:   vcs.SSHKeyProvider{KeyPath: "/tmp/id_rsa"},
		Out:     out,
		ErrOut:  errOut,
	}
	return r, out, errOut
}

func TestReporter_Title(t *testing.T) {
	repo := config.Repository{
		Name:        "dotfiles",
		Location:    "/repos/dotfiles",
		Description: "my dotfiles",
	}

	t.Run("renders all four fields in order", func(t *testing.T) {
		r, out, _ := newReporter(map[string]*fakeRepo{
			"/repos/dotfiles": {head: vcs.HeadRef{Branch: "main"}},
		})
		if err := r.Title(repo); err != nil {
			t.Fatalf("Title failed: %v", err)
		}
		want := "dotfiles(main): /repos/dotfiles\nmy dotfiles\n"
		if out.String() != want {
			t.Errorf("output = %q, want %q", out.String(), want)
		}
	})

	t.Run("unborn head renders no branch", func(t *testing.T) {
		r, out, _ := newReporter(map[string]*fakeRepo{
			"/repos/dotfiles": {head: vcs.HeadRef{Unborn: true}},
		})
		if err := r.Title(repo); err != nil {
			t.Fatalf("Title failed: %v", err)
		}
		if !strings.Contains(out.String(), "dotfiles(no branch):") {
			t.Errorf("output = %q, want a no-branch label", out.String())
		}
	})

	t.Run("missing description placeholder", func(t *testing.T) {
		r, out, _ := newReporter(map[string]*fakeRepo{
			"/repos/foo": {head: vcs.HeadRef{Branch: "main"}},
		})
		if err := r.Title(config.Repository{Location: "/repos/foo"}); err != nil {
			t.Fatalf("Title failed: %v", err)
		}
		if !strings.Contains(out.String(), "No description") {
			t.Errorf("output = %q, want No description placeholder", out.String())
		}
	})

	t.Run("bare repository rejected with visible warning", func(t *testing.T) {
		r, out, errOut := newReporter(map[string]*fakeRepo{
			"/repos/dotfiles": {bare: true},
		})
		err := r.Title(repo)
		if !errors.Is(err, vcs.ErrBareRepository) {
			t.Fatalf("Title error = %v, want ErrBareRepository", err)
		}
		if out.Len() != 0 {
			t.Errorf("stdout = %q, want empty", out.String())
		}
		got := errOut.String()
		if !strings.Contains(got, "dotfiles: cannot use bare repository") {
			t.Errorf("stderr = %q, want bare warning", got)
		}
		if !strings.Contains(got, "my dotfiles") || !strings.Contains(got, "/repos/dotfiles") {
			t.Errorf("stderr = %q, want description and location", got)
		}
	})

	t.Run("head failure propagates", func(t *testing.T) {
		headErr := fmt.Errorf("%w: boom", vcs.ErrBackend)
		r, _, errOut := newReporter(map[string]*fakeRepo{
			"/repos/dotfiles": {headErr: headErr},
		})
		err := r.Title(repo)
		if !errors.Is(err, vcs.ErrBackend) {
			t.Fatalf("Title error = %v, want ErrBackend", err)
		}
		if !strings.Contains(errOut.String(), "can't get HEAD") {
			t.Errorf("stderr = %q, want HEAD failure notice", errOut.String())
		}
	})

	t.Run("open failure propagates", func(t *testing.T) {
		r, _, _ := newReporter(map[string]*fakeRepo{})
		err := r.Title(repo)
		if !errors.Is(err, vcs.ErrRepositoryNotFound) {
			t.Fatalf("Title error = %v, want ErrRepositoryNotFound", err)
		}
	})
}
