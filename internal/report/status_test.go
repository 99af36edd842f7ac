package report

import (
	"errors"
	"strings"
	"testing"

	"multigit/internal/config"
	"multigit/internal/vcs"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		flags vcs.Status
		want  string
	}{
		{"staged new", vcs.IndexNew, "A "},
		{"staged modified", vcs.IndexModified, "M "},
		{"staged deleted", vcs.IndexDeleted, "D "},
		{"staged renamed", vcs.IndexRenamed, "R "},
		{"staged type change", vcs.IndexTypeChange, "T "},
		{"worktree modified", vcs.WorktreeModified, " M"},
		{"worktree deleted", vcs.WorktreeDeleted, " D"},
		{"worktree renamed", vcs.WorktreeRenamed, " R"},
		{"worktree type change", vcs.WorktreeTypeChange, " T"},
		{"untracked fills both columns", vcs.WorktreeNew, "??"},
		{"untracked keeps staged column", vcs.IndexNew | vcs.WorktreeNew, "A?"},
		{"staged and worktree modified", vcs.IndexModified | vcs.WorktreeModified, "MM"},
		{"added wins over modified", vcs.IndexNew | vcs.IndexModified, "A "},
		{"modified wins over deleted", vcs.IndexModified | vcs.IndexDeleted, "M "},
		{"deleted wins over renamed", vcs.WorktreeDeleted | vcs.WorktreeRenamed, " D"},
		{"ignored overrides everything", vcs.Ignored | vcs.IndexNew | vcs.WorktreeModified, "!!"},
		{"ignored alone", vcs.Ignored, "!!"},
		{"no flags", 0, "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, worktree := classify(tt.flags)
			got := string([]byte{index, worktree})
			if got != tt.want {
				t.Errorf("classify(%b) = %q, want %q", tt.flags, got, tt.want)
			}
			// Same flag set, same code.
			again1, again2 := classify(tt.flags)
			if again1 != index || again2 != worktree {
				t.Errorf("classify(%b) is not deterministic", tt.flags)
			}
		})
	}
}

func TestReporter_Status(t *testing.T) {
	desc := config.Repository{Location: "/repos/foo"}

	t.Run("clean tree prints single message", func(t *testing.T) {
		r, out, _ := newReporter(map[string]*fakeRepo{
			"/repos/foo": {head: vcs.HeadRef{Branch: "main"}},
		})
		if err := r.Status(desc); err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		got := out.String()
		if !strings.Contains(got, "Nothing changed in this repository") {
			t.Errorf("output = %q, want nothing-changed message", got)
		}
		if strings.Contains(got, "  - ") {
			t.Errorf("output = %q, want no path lines", got)
		}
	})

	t.Run("one line per changed path", func(t *testing.T) {
		r, out, _ := newReporter(map[string]*fakeRepo{
			"/repos/foo": {
				head: vcs.HeadRef{Branch: "main"},
				entries: []vcs.StatusEntry{
					{Path: "a.txt", Flags: vcs.IndexNew},
					{Path: "b.txt", Flags: vcs.WorktreeModified},
					{Path: "new.txt", Flags: vcs.WorktreeNew},
					{Path: "vendor/big.bin", Flags: vcs.Ignored},
				},
			},
		})
		if err := r.Status(desc); err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		got := out.String()
		for _, want := range []string{
			"  - A   a.txt\n",
			"  -  M  b.txt\n",
			"  - ??  new.txt\n",
			"  - !!  vendor/big.bin\n",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("output %q missing line %q", got, want)
			}
		}
		if strings.Contains(got, "Nothing changed") {
			t.Errorf("output = %q, nothing-changed message must not appear", got)
		}
	})

	t.Run("missing path renders placeholder", func(t *testing.T) {
		r, out, _ := newReporter(map[string]*fakeRepo{
			"/repos/foo": {
				head:    vcs.HeadRef{Branch: "main"},
				entries: []vcs.StatusEntry{{Flags: vcs.WorktreeModified}},
			},
		})
		if err := r.Status(desc); err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if !strings.Contains(out.String(), "  -  M  None\n") {
			t.Errorf("output = %q, want None placeholder", out.String())
		}
	})

	t.Run("bare repository aborts before the status query", func(t *testing.T) {
		repo := &fakeRepo{bare: true}
		r, _, _ := newReporter(map[string]*fakeRepo{"/repos/foo": repo})
		err := r.Status(desc)
		if !errors.Is(err, vcs.ErrBareRepository) {
			t.Fatalf("Status error = %v, want ErrBareRepository", err)
		}
		if repo.statusCalls != 0 {
			t.Errorf("status queried %d times after bare rejection, want 0", repo.statusCalls)
		}
	})

	t.Run("status query failure propagates", func(t *testing.T) {
		statusErr := errors.New("index locked")
		r, _, _ := newReporter(map[string]*fakeRepo{
			"/repos/foo": {head: vcs.HeadRef{Branch: "main"}, statusErr: statusErr},
		})
		if err := r.Status(desc); !errors.Is(err, statusErr) {
			t.Errorf("Status error = %v, want %v", err, statusErr)
		}
	})
}
