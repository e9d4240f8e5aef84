// pkg/clasp/client.go
//
// Wrapper around the clasp CLI, the official client for the managed-script
// platform. All remote effects of a run (source push, deployment
// create/update) go through this package.

package clasp

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/scriptship/scriptship/pkg/execute"
	"github.com/scriptship/scriptship/pkg/ship_err"
	"github.com/scriptship/scriptship/pkg/ship_io"
)

const (
	binary     = "clasp"
	npmPackage = "@google/clasp"
)

// RunFunc executes one external command. Tests substitute a fake.
type RunFunc func(ctx context.Context, opts execute.Options) (string, error)

// Client invokes clasp in a project directory.
type Client struct {
	// Dir is the project directory clasp operates in.
	Dir string
	// Timeout bounds each individual clasp invocation.
	Timeout time.Duration
	// DryRun logs commands without executing them.
	DryRun bool

	run RunFunc
}

// NewClient returns a client backed by real command execution.
func NewClient(dir string, timeout time.Duration, dryRun bool) *Client {
	return &Client{
		Dir:     dir,
		Timeout: timeout,
		DryRun:  dryRun,
		run:     execute.Run,
	}
}

// NewClientWithRunner returns a client with injected command execution.
func NewClientWithRunner(dir string, run RunFunc) *Client {
	return &Client{Dir: dir, run: run}
}

func (c *Client) exec(rc *ship_io.RuntimeContext, command string, args ...string) (string, error) {
	return c.run(rc.Ctx, execute.Options{
		Command: command,
		Args:    args,
		Dir:     c.Dir,
		Capture: true,
		Timeout: c.Timeout,
		DryRun:  c.DryRun,
		Logger:  rc.Log,
	})
}

// VerifyRuntime confirms the node runtime is available. The pipeline does
// not pin a version; whatever LTS the runner provides is accepted.
func (c *Client) VerifyRuntime(rc *ship_io.RuntimeContext) error {
	logger := otelzap.Ctx(rc.Ctx)

	out, err := c.exec(rc, "node", "--version")
	if err != nil {
		return ship_err.NewSetupError("node runtime not available", err,
			"Install a current LTS release of node")
	}

	logger.Info("Runtime available", zap.String("node_version", strings.TrimSpace(out)))
	return nil
}

// EnsureInstalled checks for clasp and installs it globally via npm when
// missing. Installation failure is fatal; there is no retry.
func (c *Client) EnsureInstalled(rc *ship_io.RuntimeContext, skipInstall bool) error {
	logger := otelzap.Ctx(rc.Ctx)

	out, err := c.exec(rc, binary, "--version")
	if err == nil {
		logger.Info("clasp already installed", zap.String("version", strings.TrimSpace(out)))
		return nil
	}

	if skipInstall {
		return ship_err.NewSetupError("clasp is not installed", err,
			"Install it with: npm install --global "+npmPackage,
			"Or drop --skip-install to let scriptship install it")
	}

	logger.Info("Installing clasp", zap.String("package", npmPackage))
	if _, err := c.exec(rc, "npm", "install", "--global", npmPackage); err != nil {
		return ship_err.NewSetupError("failed to install clasp", err,
			"Check that npm is installed and the registry is reachable")
	}

	return nil
}

// VerifyAuth authenticates against the platform with the materialized
// credential and validates it is accepted.
func (c *Client) VerifyAuth(rc *ship_io.RuntimeContext) error {
	logger := otelzap.Ctx(rc.Ctx)

	out, err := c.exec(rc, binary, "login", "--status")
	if err != nil {
		return ship_err.NewSetupError("clasp rejected the credential", err,
			"Confirm the credential file matches a current clasp login")
	}

	logger.Info("Credential accepted", zap.String("status", strings.TrimSpace(out)))
	return nil
}

// Push force-pushes the full local source tree to the remote project.
// Local always wins: no merge, no conflict detection. clasp push is
// idempotent and safe to re-run.
func (c *Client) Push(rc *ship_io.RuntimeContext) error {
	logger := otelzap.Ctx(rc.Ctx)

	out, err := c.exec(rc, binary, "push", "--force")
	if err != nil {
		return ship_err.NewSyncError("failed to push source to remote project", err,
			"Check network connectivity and project quota",
			"Verify .clasp.json points at the right script project")
	}

	logger.Info("Source pushed", zap.String("output", strings.TrimSpace(out)))
	return nil
}
