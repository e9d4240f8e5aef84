package pipeline

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/scriptship/scriptship/pkg/config"
	"github.com/scriptship/scriptship/pkg/credential"
	"github.com/scriptship/scriptship/pkg/gitrepo"
	"github.com/scriptship/scriptship/pkg/secrets"
	"github.com/scriptship/scriptship/pkg/ship_io"
)

// PlatformClient covers everything the pipeline needs from the
// managed-script platform CLI.
type PlatformClient interface {
	VerifyRuntime(rc *ship_io.RuntimeContext) error
	EnsureInstalled(rc *ship_io.RuntimeContext, skipInstall bool) error
	VerifyAuth(rc *ship_io.RuntimeContext) error
	Push(rc *ship_io.RuntimeContext) error
	Deploy(rc *ship_io.RuntimeContext, target DeploymentTarget, description string) error
}

// Runner executes one deployment pipeline run: a single linear sequence of
// stages with no internal parallelism. Any stage failure aborts the rest;
// credential release and the final record save happen on every exit path.
type Runner struct {
	cfg      *config.Config
	client   PlatformClient
	store    Store
	provider secrets.Provider
}

// NewRunner assembles a pipeline runner.
func NewRunner(cfg *config.Config, client PlatformClient, store Store, provider secrets.Provider) *Runner {
	return &Runner{
		cfg:      cfg,
		client:   client,
		store:    store,
		provider: provider,
	}
}

// Run executes the pipeline. The returned execution record is persisted
// whatever the outcome.
func (r *Runner) Run(rc *ship_io.RuntimeContext) (execution *Execution, err error) {
	logger := otelzap.Ctx(rc.Ctx)

	// The publish branch is a pure function of "is the identifier
	// configured", decided here, once.
	target := ResolveTarget(r.cfg.DeploymentID)

	execution = &Execution{
		ID:        uuid.New().String(),
		Project:   ProjectName(r.cfg.ProjectDir),
		Status:    StatusRunning,
		Target:    target.String(),
		StartTime: time.Now(),
		Stages:    make([]StageExecution, 0, 6),
	}

	logger.Info("Pipeline run started",
		zap.String("execution_id", execution.ID),
		zap.String("project", execution.Project),
		zap.Stringer("target", target))

	var handle *credential.Handle
	defer func() {
		now := time.Now()
		execution.EndTime = &now
		execution.Duration = now.Sub(execution.StartTime)
		if err != nil {
			execution.Status = StatusFailed
			execution.Error = err.Error()
		} else {
			execution.Status = StatusSucceeded
		}

		// Cleanup is unconditional and never fails the run.
		var cleanup *multierror.Error
		if rerr := handle.Release(rc); rerr != nil {
			cleanup = multierror.Append(cleanup, rerr)
		}
		if serr := r.store.SaveExecution(execution); serr != nil {
			cleanup = multierror.Append(cleanup, serr)
		}
		if cerr := cleanup.ErrorOrNil(); cerr != nil {
			logger.Warn("Cleanup finished with non-fatal issues", zap.Error(cerr))
		}
	}()

	if err = r.runStage(rc, execution, StageSource, func() error {
		state, verr := gitrepo.Verify(rc, r.cfg.ProjectDir, r.cfg.Branch, r.cfg.AnyBranch, r.cfg.AllowDirty)
		if verr != nil {
			return verr
		}
		execution.Trigger = TriggerInfo{
			Type:      "push",
			Branch:    state.Branch,
			Commit:    state.Commit,
			Timestamp: time.Now(),
		}
		return nil
	}); err != nil {
		return execution, err
	}

	if err = r.runStage(rc, execution, StageToolchain, func() error {
		return r.client.VerifyRuntime(rc)
	}); err != nil {
		return execution, err
	}

	if err = r.runStage(rc, execution, StageCLI, func() error {
		return r.client.EnsureInstalled(rc, r.cfg.SkipInstall)
	}); err != nil {
		return execution, err
	}

	if err = r.runStage(rc, execution, StageCredential, func() error {
		h, merr := credential.Materialize(rc, r.provider, r.cfg.CredentialPath)
		if merr != nil {
			return merr
		}
		handle = h
		return r.client.VerifyAuth(rc)
	}); err != nil {
		return execution, err
	}

	if err = r.runStage(rc, execution, StagePush, func() error {
		return r.client.Push(rc)
	}); err != nil {
		return execution, err
	}

	if err = r.runStage(rc, execution, StageDeploy, func() error {
		description := Description(time.Now())
		execution.Description = description
		return r.client.Deploy(rc, target, description)
	}); err != nil {
		return execution, err
	}

	return execution, nil
}

func (r *Runner) runStage(rc *ship_io.RuntimeContext, execution *Execution, name string, fn func() error) error {
	logger := otelzap.Ctx(rc.Ctx)

	execution.Stages = append(execution.Stages, StageExecution{
		Name:      name,
		Status:    StatusRunning,
		StartTime: time.Now(),
	})
	idx := len(execution.Stages) - 1

	logger.Info("Stage started", zap.String("stage", name))

	err := fn()

	now := time.Now()
	stage := &execution.Stages[idx]
	stage.EndTime = &now
	stage.Duration = now.Sub(stage.StartTime)
	if err != nil {
		stage.Status = StatusFailed
		stage.Error = err.Error()
		logger.Error("Stage failed",
			zap.String("stage", name),
			zap.Duration("duration", stage.Duration),
			zap.Error(err))
	} else {
		stage.Status = StatusSucceeded
		logger.Info("Stage completed",
			zap.String("stage", name),
			zap.Duration("duration", stage.Duration))
	}

	if serr := r.store.SaveExecution(execution); serr != nil {
		logger.Warn("Failed to save execution", zap.Error(serr))
	}

	return err
}

// ProjectName derives the store key for a project from its directory.
func ProjectName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(dir)
	}
	return filepath.Base(abs)
}
