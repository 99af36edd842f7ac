// Package vcs defines the version-control backend capability consumed by
// the report code, plus a go-git backed implementation of it.
package vcs

import "context"

// Status is a bit set describing one path's index and worktree state.
type Status uint32

const (
	IndexNew Status = 1 << iota
	IndexModified
	IndexDeleted
	IndexRenamed
	IndexTypeChange
	WorktreeNew
	WorktreeModified
	WorktreeDeleted
	WorktreeRenamed
	WorktreeTypeChange
	Ignored
	Conflicted
)

// Has reports whether flag is set.
func (s Status) Has(flag Status) bool { return s&flag != 0 }

// StatusEntry is one changed path reported by the backend.
type StatusEntry struct {
	Path  string
	Flags Status
}

// StatusOptions controls which entries a status query returns. Backends
// may still return ignored entries regardless of IncludeIgnored; callers
// must render them rather than assume they were filtered.
type StatusOptions struct {
	IncludeUntracked bool
	IncludeIgnored   bool
}

// HeadRef is the resolved state of a repository's HEAD. Unborn means HEAD
// points at a branch with no commits yet; Branch is empty in that case.
type HeadRef struct {
	Unborn bool
	Branch string
}

// TransferProgress carries the counters delivered incrementally during one
// fetch. ReceivedObjects never exceeds TotalObjects, and once they are
// equal the transfer has moved on to delta resolution for good.
type TransferProgress struct {
	ReceivedObjects int
	TotalObjects    int
	IndexedObjects  int
	IndexedDeltas   int
	TotalDeltas     int
	ReceivedBytes   int64
	LocalObjects    int
}

// TipUpdate reports one ref whose tip moved during a fetch. OldHash is
// empty when the ref is new.
type TipUpdate struct {
	RefName string
	OldHash string
	NewHash string
}

// Callbacks are the hooks a download invokes while the transfer runs. All
// are optional; each may fire any number of times before Download returns,
// never after.
type Callbacks struct {
	Sideband         func(text string)
	UpdateTip        func(update TipUpdate)
	TransferProgress func(progress TransferProgress)
}

// Credential is an SSH private-key credential.
type Credential struct {
	Username       string
	PrivateKeyPath string
}

// CredentialProvider supplies a credential when the transport asks for
// one. usernameHint is the username embedded in the remote URL, if any.
type CredentialProvider interface {
	Provide(url, usernameHint string) (Credential, error)
}

// UpdateTipsFlags selects which local bookkeeping a tip update refreshes.
type UpdateTipsFlags uint8

// UpdateFetchHead records the fetched tips in FETCH_HEAD.
const UpdateFetchHead UpdateTipsFlags = 1 << iota

// Backend opens repositories on disk.
type Backend interface {
	Open(path string) (Repository, error)
}

// Repository is one opened repository.
type Repository interface {
	IsBare() bool
	Head() (HeadRef, error)
	Status(opts StatusOptions) ([]StatusEntry, error)
	Remote(name string) (Remote, error)
}

// Remote is a handle on one of a repository's configured remotes.
type Remote interface {
	// Download transfers from the remote, invoking the callbacks as the
	// transfer progresses. Credentials are requested lazily, only when
	// the transport demands authentication.
	Download(ctx context.Context, creds CredentialProvider, cb Callbacks) error
	// Stats returns the cumulative counters of the completed transfer.
	Stats() TransferProgress
	Disconnect() error
	UpdateTips(flags UpdateTipsFlags) error
}
