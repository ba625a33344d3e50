package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	hash, err := wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "site", Email: "site@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commit := commitFile(t, repo, dir, "site/index.html", "<h1>hi</h1>")

	rev, err := Describe(filepath.Join(dir, "site"))
	require.NoError(t, err)
	require.NotNil(t, rev)
	assert.Equal(t, commit, rev.Commit)
	assert.Equal(t, commit[:12], rev.Short())
	assert.NotEmpty(t, rev.Branch)
	assert.False(t, rev.Dirty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "site", "index.html"), []byte("changed"), 0o600))
	rev, err = Describe(dir)
	require.NoError(t, err)
	assert.True(t, rev.Dirty)
}

func TestDescribeOutsideRepository(t *testing.T) {
	rev, err := Describe(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, rev)
}

func TestDescribeEmptyRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	rev, err := Describe(dir)
	require.NoError(t, err)
	assert.Nil(t, rev)
}
