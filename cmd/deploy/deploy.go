package deploy

import (
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/scriptship/scriptship/pkg/clasp"
	"github.com/scriptship/scriptship/pkg/config"
	"github.com/scriptship/scriptship/pkg/pipeline"
	"github.com/scriptship/scriptship/pkg/secrets"
	"github.com/scriptship/scriptship/pkg/ship_cli"
	"github.com/scriptship/scriptship/pkg/ship_io"
)

// DeployCmd runs the full deployment pipeline.
var DeployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Push the local source tree and publish a deployment",
	Long: `Run the full deployment pipeline against the current source tree:

1. Verify the tree is a clean git checkout of the expected branch
2. Verify the node runtime is available
3. Ensure clasp is installed (installing it if missing)
4. Materialize the platform credential and validate it parses as JSON
5. Force-push the full source tree to the remote project
6. Create a new deployment, or update the configured one in place

The credential file is removed when the run ends, whether it succeeded or
failed. A malformed credential aborts the run before anything is pushed.`,
	RunE: ship_cli.Wrap(runDeploy),
}

func init() {
	DeployCmd.Flags().String("project-dir", ".", "Directory containing the script project")
	DeployCmd.Flags().String("branch", "main", "Branch the pipeline deploys from")
	DeployCmd.Flags().Bool("any-branch", false, "Deploy from whatever branch is checked out")
	DeployCmd.Flags().Bool("allow-dirty", false, "Deploy even with uncommitted changes")
	DeployCmd.Flags().String("deployment-id", "", "Update this existing deployment instead of creating a new one")
	DeployCmd.Flags().String("credential-env", "CLASPRC_JSON", "Environment variable holding the JSON credential")
	DeployCmd.Flags().String("credential-file", "", "File holding the JSON credential (overrides env and Vault)")
	DeployCmd.Flags().String("vault-path", "", "Vault KV v2 path (mount/path) holding the credential")
	DeployCmd.Flags().String("vault-key", "clasprc", "Key within the Vault secret")
	DeployCmd.Flags().Bool("skip-install", false, "Fail instead of installing clasp when it is missing")
	DeployCmd.Flags().Bool("dry-run", false, "Log the commands without executing them")
}

func runDeploy(rc *ship_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	logger := otelzap.Ctx(rc.Ctx)

	cfg, err := config.Load(rc, cmd.Flags())
	if err != nil {
		return err
	}

	provider, err := secrets.Resolve(cfg.CredentialFile, cfg.VaultPath, cfg.VaultKey, cfg.CredentialEnv)
	if err != nil {
		return err
	}

	store, err := pipeline.NewFileStore(cfg.StateDir, rc.Log)
	if err != nil {
		return err
	}

	client := clasp.NewClient(cfg.ProjectDir, cfg.Timeout, cfg.DryRun)
	runner := pipeline.NewRunner(cfg, client, store, provider)

	execution, err := runner.Run(rc)
	if execution != nil {
		rc.Attributes["execution_id"] = execution.ID
		rc.Attributes["target"] = execution.Target
	}
	if err != nil {
		return err
	}

	logger.Info("Deployment published",
		zap.String("execution_id", execution.ID),
		zap.String("description", execution.Description),
		zap.String("target", execution.Target))
	return nil
}
