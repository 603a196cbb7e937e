package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	d, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestSettings(t *testing.T) {
	d := openTest(t)

	v, err := d.GetSetting(KeyLastWorkspace)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, d.SetSetting(KeyLastWorkspace, "w1"))
	require.NoError(t, d.SetSetting(KeyLastWorkspace, "w2"))
	v, err = d.GetSetting(KeyLastWorkspace)
	require.NoError(t, err)
	assert.Equal(t, "w2", v)

	require.NoError(t, d.DeleteSetting(KeyLastWorkspace))
	v, _ = d.GetSetting(KeyLastWorkspace)
	assert.Empty(t, v)
}

func TestReopenKeepsState(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, d.SetSetting(KeyLastProject, "p1"))
	require.NoError(t, d.Close())

	d, err = Open(dir)
	require.NoError(t, err)
	defer d.Close()
	v, err := d.GetSetting(KeyLastProject)
	require.NoError(t, err)
	assert.Equal(t, "p1", v)
}

func TestRecentWorkspaces(t *testing.T) {
	d := openTest(t)

	require.NoError(t, d.TouchWorkspace("w1", "One"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, d.TouchWorkspace("w2", "Two"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, d.TouchWorkspace("w1", "One renamed"))

	recents, err := d.RecentWorkspaces(10)
	require.NoError(t, err)
	require.Len(t, recents, 2)
	assert.Equal(t, "w1", recents[0].ID)
	assert.Equal(t, "One renamed", recents[0].Name)
	assert.Equal(t, "w2", recents[1].ID)

	require.NoError(t, d.ForgetWorkspace("w1"))
	recents, err = d.RecentWorkspaces(1)
	require.NoError(t, err)
	require.Len(t, recents, 1)
	assert.Equal(t, "w2", recents[0].ID)
}
