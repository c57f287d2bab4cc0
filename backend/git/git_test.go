package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello gitforge\n"), 0o644))
	return dir
}

func TestStatusDirtyAndClean(t *testing.T) {
	dir := initRepo(t)
	b := New(dir)
	ctx := context.Background()

	out, err := b.Run(ctx, "status", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "README.md")

	_, err = b.Run(ctx, "add", nil)
	require.NoError(t, err)
	_, err = b.Run(ctx, "commit", []string{"-m", "initial commit"})
	require.NoError(t, err)

	out, err = b.Run(ctx, "status", nil)
	require.NoError(t, err)
	assert.Equal(t, "working tree clean", out)
}

func TestCommitAndLog(t *testing.T) {
	dir := initRepo(t)
	b := New(dir)
	ctx := context.Background()

	_, err := b.Run(ctx, "add", []string{"README.md"})
	require.NoError(t, err)
	out, err := b.Run(ctx, "commit", []string{"-m", "initial commit"})
	require.NoError(t, err)
	assert.Contains(t, out, "initial commit")

	out, err = b.Run(ctx, "log", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "initial commit")

	out, err = b.Run(ctx, "log", []string{"1"})
	require.NoError(t, err)
	assert.Contains(t, out, "initial commit")
}

func TestCommitRequiresMessage(t *testing.T) {
	dir := initRepo(t)
	b := New(dir)
	_, err := b.Run(context.Background(), "commit", nil)
	assert.Error(t, err)
}

func TestBranchCreateAndList(t *testing.T) {
	dir := initRepo(t)
	b := New(dir)
	ctx := context.Background()

	_, err := b.Run(ctx, "add", nil)
	require.NoError(t, err)
	_, err = b.Run(ctx, "commit", []string{"-m", "initial commit"})
	require.NoError(t, err)

	out, err := b.Run(ctx, "branch", []string{"feature/x"})
	require.NoError(t, err)
	assert.Contains(t, out, "feature/x")

	out, err = b.Run(ctx, "branch", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "feature/x")
	assert.Contains(t, out, "master")
}

func TestUnsupportedOperation(t *testing.T) {
	dir := initRepo(t)
	b := New(dir)
	_, err := b.Run(context.Background(), "rebase", nil)
	assert.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	dir := initRepo(t)
	b := New(dir)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Run(ctx, "status", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMissingRepository(t *testing.T) {
	b := New(t.TempDir())
	_, err := b.Run(context.Background(), "status", nil)
	assert.Error(t, err)
}
