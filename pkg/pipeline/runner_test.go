package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scriptship/scriptship/pkg/config"
	"github.com/scriptship/scriptship/pkg/secrets"
	"github.com/scriptship/scriptship/pkg/ship_err"
	"github.com/scriptship/scriptship/pkg/ship_io"
)

// fakeClient records platform CLI operations instead of executing them.
type fakeClient struct {
	calls       []string
	failOn      map[string]error
	deployCount int
	target      DeploymentTarget
	description string
}

func (f *fakeClient) op(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == nil {
		return nil
	}
	return f.failOn[name]
}

func (f *fakeClient) VerifyRuntime(rc *ship_io.RuntimeContext) error {
	return f.op("runtime")
}

func (f *fakeClient) EnsureInstalled(rc *ship_io.RuntimeContext, skipInstall bool) error {
	return f.op("install")
}

func (f *fakeClient) VerifyAuth(rc *ship_io.RuntimeContext) error {
	return f.op("auth")
}

func (f *fakeClient) Push(rc *ship_io.RuntimeContext) error {
	return f.op("push")
}

func (f *fakeClient) Deploy(rc *ship_io.RuntimeContext, target DeploymentTarget, description string) error {
	f.deployCount++
	f.target = target
	f.description = description
	return f.op("deploy")
}

func (f *fakeClient) called(name string) bool {
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

func initRepo(t *testing.T, dir string) {
	t.Helper()

	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName("main"),
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

func testSetup(t *testing.T, credValue, deploymentID string) (*config.Config, *fakeClient, *Runner, string) {
	t.Helper()

	projectDir := t.TempDir()
	stateDir := t.TempDir()
	credPath := filepath.Join(t.TempDir(), "clasprc.json")

	initRepo(t, projectDir)
	t.Setenv("TEST_CLASPRC", credValue)

	cfg := &config.Config{
		ProjectDir:     projectDir,
		Branch:         "main",
		DeploymentID:   deploymentID,
		CredentialEnv:  "TEST_CLASPRC",
		CredentialPath: credPath,
		StateDir:       stateDir,
		Timeout:        time.Minute,
	}

	store, err := NewFileStore(stateDir, zap.NewNop())
	require.NoError(t, err)

	client := &fakeClient{}
	runner := NewRunner(cfg, client, store, secrets.EnvProvider{Var: "TEST_CLASPRC"})
	return cfg, client, runner, credPath
}

func testContext(t *testing.T) *ship_io.RuntimeContext {
	t.Helper()
	return ship_io.NewContext(context.Background(), "test")
}

func TestProjectNameResolvesRelativeDirs(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	want := filepath.Base(dir)
	assert.Equal(t, want, ProjectName("."))
	assert.Equal(t, want, ProjectName(dir))
}

func TestRunCreateNewDeployment(t *testing.T) {
	_, client, runner, credPath := testSetup(t, `{"token":"abc"}`, "")
	rc := testContext(t)

	execution, err := runner.Run(rc)
	require.NoError(t, err)

	assert.Equal(t, StatusSucceeded, execution.Status)
	assert.Equal(t, "new", execution.Target)
	assert.Equal(t, []string{"runtime", "install", "auth", "push", "deploy"}, client.calls)

	// Exclusive branch selection: empty id means create-new.
	assert.Equal(t, 1, client.deployCount)
	assert.False(t, client.target.IsExisting())

	assert.True(t, strings.HasPrefix(client.description, DescriptionPrefix))
	assert.NotEmpty(t, strings.TrimPrefix(client.description, DescriptionPrefix))
	assert.Equal(t, client.description, execution.Description)

	// Cleanup invariant: the credential never outlives the run.
	assert.NoFileExists(t, credPath)

	assert.Equal(t, "main", execution.Trigger.Branch)
	assert.NotEmpty(t, execution.Trigger.Commit)
}

func TestRunUpdateExistingDeployment(t *testing.T) {
	_, client, runner, credPath := testSetup(t, `{"token":"abc"}`, "AKDe123")
	rc := testContext(t)

	execution, err := runner.Run(rc)
	require.NoError(t, err)

	assert.Equal(t, StatusSucceeded, execution.Status)
	assert.Equal(t, "existing:AKDe123", execution.Target)
	assert.Equal(t, 1, client.deployCount)
	assert.True(t, client.target.IsExisting())
	assert.Equal(t, "AKDe123", client.target.ID())
	assert.NoFileExists(t, credPath)
}

func TestRunMalformedCredentialFailsBeforePush(t *testing.T) {
	_, client, runner, credPath := testSetup(t, "not-json", "anything")
	rc := testContext(t)

	execution, err := runner.Run(rc)
	require.Error(t, err)

	assert.Equal(t, ship_err.CategoryCredential, ship_err.Category(err))
	assert.Equal(t, StatusFailed, execution.Status)

	// Fail-fast ordering: push and deploy never execute.
	assert.False(t, client.called("auth"))
	assert.False(t, client.called("push"))
	assert.False(t, client.called("deploy"))
	assert.NoFileExists(t, credPath)

	last := execution.Stages[len(execution.Stages)-1]
	assert.Equal(t, StageCredential, last.Name)
	assert.Equal(t, StatusFailed, last.Status)
}

func TestRunPushFailureAbortsDeploy(t *testing.T) {
	_, client, runner, credPath := testSetup(t, `{"token":"abc"}`, "")
	client.failOn = map[string]error{"push": errors.New("quota exceeded")}
	rc := testContext(t)

	execution, err := runner.Run(rc)
	require.Error(t, err)

	assert.Equal(t, StatusFailed, execution.Status)
	assert.True(t, client.called("push"))
	assert.False(t, client.called("deploy"))

	// Cleanup still runs on the failure path.
	assert.NoFileExists(t, credPath)
}

func TestRunSetupFailureIsFatal(t *testing.T) {
	_, client, runner, credPath := testSetup(t, `{"token":"abc"}`, "")
	client.failOn = map[string]error{"install": errors.New("npm registry unreachable")}
	rc := testContext(t)

	execution, err := runner.Run(rc)
	require.Error(t, err)

	assert.Equal(t, StatusFailed, execution.Status)
	assert.False(t, client.called("auth"))
	assert.False(t, client.called("push"))
	assert.False(t, client.called("deploy"))
	assert.NoFileExists(t, credPath)
}

func TestRunRefusesWrongBranch(t *testing.T) {
	cfg, client, runner, _ := testSetup(t, `{"token":"abc"}`, "")
	cfg.Branch = "release"
	rc := testContext(t)

	execution, err := runner.Run(rc)
	require.Error(t, err)

	assert.Equal(t, StatusFailed, execution.Status)
	assert.Empty(t, client.calls)
	assert.Equal(t, StageSource, execution.Stages[0].Name)
}

func TestRunPersistsExecutionRecord(t *testing.T) {
	cfg, _, runner, _ := testSetup(t, `{"token":"abc"}`, "")
	rc := testContext(t)

	execution, err := runner.Run(rc)
	require.NoError(t, err)

	store, err := NewFileStore(cfg.StateDir, zap.NewNop())
	require.NoError(t, err)

	saved, err := store.GetExecution(execution.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, saved.Status)
	assert.NotNil(t, saved.EndTime)
	assert.Equal(t,
		[]string{StageSource, StageToolchain, StageCLI, StageCredential, StagePush, StageDeploy},
		saved.StageNames())
}
