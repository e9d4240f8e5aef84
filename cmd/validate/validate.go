package validate

import (
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/scriptship/scriptship/pkg/clasp"
	"github.com/scriptship/scriptship/pkg/config"
	"github.com/scriptship/scriptship/pkg/credential"
	"github.com/scriptship/scriptship/pkg/secrets"
	"github.com/scriptship/scriptship/pkg/ship_cli"
	"github.com/scriptship/scriptship/pkg/ship_io"
)

// ValidateCmd performs the fail-fast subset of the pipeline: everything up
// to and including credential validation, with nothing pushed or deployed.
var ValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration, toolchain and credential without deploying",
	RunE:  ship_cli.Wrap(runValidate),
}

func init() {
	ValidateCmd.Flags().String("project-dir", ".", "Directory containing the script project")
	ValidateCmd.Flags().String("credential-env", "CLASPRC_JSON", "Environment variable holding the JSON credential")
	ValidateCmd.Flags().String("credential-file", "", "File holding the JSON credential (overrides env and Vault)")
	ValidateCmd.Flags().String("vault-path", "", "Vault KV v2 path (mount/path) holding the credential")
	ValidateCmd.Flags().String("vault-key", "clasprc", "Key within the Vault secret")
	ValidateCmd.Flags().Bool("skip-install", true, "Fail instead of installing clasp when it is missing")
}

func runValidate(rc *ship_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	logger := otelzap.Ctx(rc.Ctx)

	cfg, err := config.Load(rc, cmd.Flags())
	if err != nil {
		return err
	}

	provider, err := secrets.Resolve(cfg.CredentialFile, cfg.VaultPath, cfg.VaultKey, cfg.CredentialEnv)
	if err != nil {
		return err
	}

	client := clasp.NewClient(cfg.ProjectDir, cfg.Timeout, false)

	if err := client.VerifyRuntime(rc); err != nil {
		return err
	}
	if err := client.EnsureInstalled(rc, cfg.SkipInstall); err != nil {
		return err
	}

	handle, err := credential.Materialize(rc, provider, cfg.CredentialPath)
	if err != nil {
		return err
	}
	defer func() { _ = handle.Release(rc) }()

	if err := client.VerifyAuth(rc); err != nil {
		return err
	}

	logger.Info("Validation passed",
		zap.String("source", provider.Describe()),
		zap.String("project_dir", cfg.ProjectDir))
	return nil
}
