// pkg/gitrepo/gitrepo.go
//
// Source tree verification. The pipeline runs against whatever commit is
// checked out; this package confirms the tree is a git repository on the
// expected branch and reports the commit for the execution record.

package gitrepo

import (
	cerr "github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/scriptship/scriptship/pkg/ship_io"
)

// State describes the repository at the start of a run.
type State struct {
	Branch     string
	Commit     string
	HasChanges bool
}

// Inspect opens the repository at dir and resolves HEAD.
func Inspect(rc *ship_io.RuntimeContext, dir string) (*State, error) {
	logger := otelzap.Ctx(rc.Ctx)

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, cerr.Wrapf(err, "not a git repository: %s", dir)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, cerr.Wrap(err, "failed to resolve HEAD")
	}

	state := &State{
		Commit: head.Hash().String(),
	}
	if head.Name().IsBranch() {
		state.Branch = head.Name().Short()
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, cerr.Wrap(err, "failed to open worktree")
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, cerr.Wrap(err, "failed to read worktree status")
	}
	state.HasChanges = !status.IsClean()

	logger.Debug("Repository inspected",
		zap.String("branch", state.Branch),
		zap.String("commit", state.Commit),
		zap.Bool("dirty", state.HasChanges))

	return state, nil
}

// Verify enforces the run preconditions: the tree is on the expected
// branch (unless anyBranch) and clean (unless allowDirty).
func Verify(rc *ship_io.RuntimeContext, dir, branch string, anyBranch, allowDirty bool) (*State, error) {
	state, err := Inspect(rc, dir)
	if err != nil {
		return nil, err
	}

	if !anyBranch && state.Branch != branch {
		return nil, cerr.Newf("refusing to deploy from branch %q, expected %q (use --any-branch to override)",
			state.Branch, branch)
	}
	if !allowDirty && state.HasChanges {
		return nil, cerr.New("worktree has uncommitted changes (use --allow-dirty to override)")
	}

	return state, nil
}
