package clasp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptship/scriptship/pkg/execute"
	"github.com/scriptship/scriptship/pkg/pipeline"
	"github.com/scriptship/scriptship/pkg/ship_err"
	"github.com/scriptship/scriptship/pkg/ship_io"
)

// recorder captures invocations and replays scripted results.
type recorder struct {
	commands []string
	results  map[string]error
}

func (r *recorder) run(ctx context.Context, opts execute.Options) (string, error) {
	cmd := opts.Command + " " + strings.Join(opts.Args, " ")
	r.commands = append(r.commands, cmd)
	for prefix, err := range r.results {
		if strings.HasPrefix(cmd, prefix) {
			return "", err
		}
	}
	return "ok", nil
}

func (r *recorder) last() string {
	if len(r.commands) == 0 {
		return ""
	}
	return r.commands[len(r.commands)-1]
}

func testContext(t *testing.T) *ship_io.RuntimeContext {
	t.Helper()
	return ship_io.NewContext(context.Background(), "test")
}

func TestDeployNewDeployment(t *testing.T) {
	rec := &recorder{}
	client := NewClientWithRunner(t.TempDir(), rec.run)
	rc := testContext(t)

	err := client.Deploy(rc, pipeline.NewDeployment(), "Auto-deployment now")
	require.NoError(t, err)

	assert.Equal(t, `clasp deploy --description Auto-deployment now`, rec.last())
	assert.NotContains(t, rec.last(), "--deploymentId")
}

func TestDeployExistingDeployment(t *testing.T) {
	rec := &recorder{}
	client := NewClientWithRunner(t.TempDir(), rec.run)
	rc := testContext(t)

	err := client.Deploy(rc, pipeline.ExistingDeployment("AKDe123"), "Auto-deployment now")
	require.NoError(t, err)

	assert.Contains(t, rec.last(), "--deploymentId AKDe123")
}

func TestDeployFailureIsClassified(t *testing.T) {
	rec := &recorder{results: map[string]error{"clasp deploy": errors.New("boom")}}
	client := NewClientWithRunner(t.TempDir(), rec.run)
	rc := testContext(t)

	err := client.Deploy(rc, pipeline.NewDeployment(), "Auto-deployment now")
	require.Error(t, err)
	assert.Equal(t, ship_err.CategoryDeploy, ship_err.Category(err))
}

func TestPushUsesForce(t *testing.T) {
	rec := &recorder{}
	client := NewClientWithRunner(t.TempDir(), rec.run)
	rc := testContext(t)

	require.NoError(t, client.Push(rc))
	assert.Equal(t, "clasp push --force", rec.last())
}

func TestPushFailureIsSyncFailure(t *testing.T) {
	rec := &recorder{results: map[string]error{"clasp push": errors.New("network down")}}
	client := NewClientWithRunner(t.TempDir(), rec.run)
	rc := testContext(t)

	err := client.Push(rc)
	require.Error(t, err)
	assert.Equal(t, ship_err.CategorySync, ship_err.Category(err))
}

func TestEnsureInstalledAlreadyPresent(t *testing.T) {
	rec := &recorder{}
	client := NewClientWithRunner(t.TempDir(), rec.run)
	rc := testContext(t)

	require.NoError(t, client.EnsureInstalled(rc, false))
	assert.Equal(t, []string{"clasp --version"}, rec.commands)
}

func TestEnsureInstalledInstallsWhenMissing(t *testing.T) {
	rec := &recorder{results: map[string]error{"clasp --version": errors.New("not found")}}
	client := NewClientWithRunner(t.TempDir(), rec.run)
	rc := testContext(t)

	require.NoError(t, client.EnsureInstalled(rc, false))
	assert.Equal(t, "npm install --global @google/clasp", rec.last())
}

func TestEnsureInstalledSkipInstall(t *testing.T) {
	rec := &recorder{results: map[string]error{"clasp --version": errors.New("not found")}}
	client := NewClientWithRunner(t.TempDir(), rec.run)
	rc := testContext(t)

	err := client.EnsureInstalled(rc, true)
	require.Error(t, err)
	assert.Equal(t, ship_err.CategorySetup, ship_err.Category(err))

	// No install was attempted.
	assert.Equal(t, []string{"clasp --version"}, rec.commands)
}

func TestInstallFailureIsFatalWithoutRetry(t *testing.T) {
	rec := &recorder{results: map[string]error{
		"clasp --version": errors.New("not found"),
		"npm install":     errors.New("registry unreachable"),
	}}
	client := NewClientWithRunner(t.TempDir(), rec.run)
	rc := testContext(t)

	err := client.EnsureInstalled(rc, false)
	require.Error(t, err)
	assert.Equal(t, ship_err.CategorySetup, ship_err.Category(err))

	// Exactly one install attempt.
	installs := 0
	for _, cmd := range rec.commands {
		if strings.HasPrefix(cmd, "npm install") {
			installs++
		}
	}
	assert.Equal(t, 1, installs)
}

func TestVerifyRuntimeMissingNode(t *testing.T) {
	rec := &recorder{results: map[string]error{"node --version": errors.New("not found")}}
	client := NewClientWithRunner(t.TempDir(), rec.run)
	rc := testContext(t)

	err := client.VerifyRuntime(rc)
	require.Error(t, err)
	assert.Equal(t, ship_err.CategorySetup, ship_err.Category(err))
}
