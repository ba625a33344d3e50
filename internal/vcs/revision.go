// Package vcs reads the revision of the git work tree a site is built from.
package vcs

import (
	stdErrors "errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
)

// Revision identifies the checked out commit.
type Revision struct {
	Commit string `json:"commit"`
	Branch string `json:"branch,omitempty"` // empty on a detached HEAD
	Dirty  bool   `json:"dirty"`
}

// Short returns the abbreviated commit hash.
func (r Revision) Short() string {
	if len(r.Commit) > 12 {
		return r.Commit[:12]
	}
	return r.Commit
}

// Describe returns the revision of the repository containing dir, searching
// parent directories for .git. It returns nil without error when dir is not
// inside a repository or the repository has no commits yet.
func Describe(dir string) (*Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if stdErrors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.GitError("failed to open repository").WithCause(err).
			WithContext("dir", dir).Build()
	}

	ref, err := repo.Head()
	if stdErrors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.GitError("failed to resolve HEAD").WithCause(err).
			WithContext("dir", dir).Build()
	}

	rev := &Revision{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		rev.Branch = ref.Name().Short()
	}

	wt, err := repo.Worktree()
	if stdErrors.Is(err, git.ErrIsBareRepository) {
		return rev, nil
	}
	if err != nil {
		return nil, errors.GitError("failed to open worktree").WithCause(err).Build()
	}
	status, err := wt.Status()
	if err != nil {
		return nil, errors.GitError("failed to read worktree status").WithCause(err).Build()
	}
	rev.Dirty = !status.IsClean()
	return rev, nil
}
