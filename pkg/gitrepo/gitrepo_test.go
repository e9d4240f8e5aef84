package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptship/scriptship/pkg/ship_io"
)

func initRepo(t *testing.T, dir, branch string) {
	t.Helper()

	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName(branch),
		},
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "appsscript.json"), []byte("{}\n"), 0644))

	worktree, err := repo.Worktree()
	require.NoError(t, err)
	_, err = worktree.Add("appsscript.json")
	require.NoError(t, err)
	_, err = worktree.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func testContext(t *testing.T) *ship_io.RuntimeContext {
	t.Helper()
	return ship_io.NewContext(context.Background(), "test")
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir, "main")

	state, err := Inspect(testContext(t), dir)
	require.NoError(t, err)

	assert.Equal(t, "main", state.Branch)
	assert.Len(t, state.Commit, 40)
	assert.False(t, state.HasChanges)
}

func TestInspectDetectsDirtyWorktree(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir, "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Code.js"), []byte("function main() {}\n"), 0644))

	state, err := Inspect(testContext(t), dir)
	require.NoError(t, err)
	assert.True(t, state.HasChanges)
}

func TestInspectNotARepository(t *testing.T) {
	_, err := Inspect(testContext(t), t.TempDir())
	assert.Error(t, err)
}

func TestInspectDetectsDotGitInSubdirectory(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir, "main")
	sub := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(sub, 0755))

	state, err := Inspect(testContext(t), sub)
	require.NoError(t, err)
	assert.Equal(t, "main", state.Branch)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name       string
		branch     string
		expected   string
		anyBranch  bool
		dirty      bool
		allowDirty bool
		wantErr    bool
	}{
		{name: "expected branch clean", branch: "main", expected: "main"},
		{name: "wrong branch", branch: "feature", expected: "main", wantErr: true},
		{name: "wrong branch with any-branch", branch: "feature", expected: "main", anyBranch: true},
		{name: "dirty tree", branch: "main", expected: "main", dirty: true, wantErr: true},
		{name: "dirty tree with allow-dirty", branch: "main", expected: "main", dirty: true, allowDirty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			initRepo(t, dir, tt.branch)
			if tt.dirty {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.js"), []byte("//\n"), 0644))
			}

			state, err := Verify(testContext(t), dir, tt.expected, tt.anyBranch, tt.allowDirty)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.branch, state.Branch)
		})
	}
}
