package forge

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *RecordStore {
	t.Helper()
	s, err := OpenRecordStore(filepath.Join(t.TempDir(), "gitforge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndListPRs(t *testing.T) {
	s := openStore(t)

	pr, err := s.CreatePR("Add retry logic", "feature/retry", "main")
	require.NoError(t, err)
	assert.Equal(t, "open", pr.State)
	assert.NotZero(t, pr.ID)

	_, err = s.CreatePR("Fix flaky test", "", "")
	require.NoError(t, err)

	prs, err := s.ListPRs()
	require.NoError(t, err)
	require.Len(t, prs, 2)
	// Newest first.
	assert.Equal(t, "Fix flaky test", prs[0].Title)
	assert.Equal(t, "feature", prs[0].From)
	assert.Equal(t, "main", prs[0].To)
	assert.Equal(t, "Add retry logic", prs[1].Title)
}

func TestCreatePRRequiresTitle(t *testing.T) {
	s := openStore(t)
	_, err := s.CreatePR("", "a", "b")
	assert.Error(t, err)
}

func TestAddAndListWorktrees(t *testing.T) {
	s := openStore(t)

	wt, err := s.AddWorktree("feature-x", "/tmp/wt/feature-x", "feature/x")
	require.NoError(t, err)
	assert.Equal(t, "feature-x", wt.Name)

	// Re-registering the same name replaces the record.
	_, err = s.AddWorktree("feature-x", "/tmp/wt/feature-x2", "feature/x2")
	require.NoError(t, err)

	wts, err := s.ListWorktrees()
	require.NoError(t, err)
	require.Len(t, wts, 1)
	assert.Equal(t, "/tmp/wt/feature-x2", wts[0].Path)
}

func TestAddWorktreeValidation(t *testing.T) {
	s := openStore(t)
	_, err := s.AddWorktree("", "/p", "b")
	assert.Error(t, err)
	_, err = s.AddWorktree("n", "", "b")
	assert.Error(t, err)
	_, err = s.AddWorktree("n", "/p", "")
	assert.Error(t, err)
}

func TestEmptyListsAreEmpty(t *testing.T) {
	s := openStore(t)
	prs, err := s.ListPRs()
	require.NoError(t, err)
	assert.Empty(t, prs)
	wts, err := s.ListWorktrees()
	require.NoError(t, err)
	assert.Empty(t, wts)
}
