/* cmd/root.go */

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	// Subcommands
	"github.com/scriptship/scriptship/cmd/deploy"
	"github.com/scriptship/scriptship/cmd/inspect"
	"github.com/scriptship/scriptship/cmd/validate"

	"github.com/scriptship/scriptship/pkg/logger"
	"github.com/scriptship/scriptship/pkg/ship_cli"
	"github.com/scriptship/scriptship/pkg/ship_err"
	"github.com/scriptship/scriptship/pkg/ship_io"
)

// RootCmd is the base command for scriptship.
var RootCmd = &cobra.Command{
	Use:   "scriptship",
	Short: "Deploy script projects to the managed-script platform",
	Long: `scriptship publishes a local script project to its remote managed-script
project and creates or updates a versioned deployment. It is meant to run
from CI on a push to the main branch, but works the same from a terminal.`,
	RunE: ship_cli.Wrap(func(rc *ship_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		return cmd.Help()
	}),
}

// HelpCmd wraps help so that it can be invoked like a normal command.
var HelpCmd = &cobra.Command{
	Use:   "help",
	Short: "Help about any command",
	RunE: ship_cli.Wrap(func(rc *ship_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return RootCmd.Help()
		}
		c, _, err := RootCmd.Find(args)
		if err != nil || c == nil {
			return fmt.Errorf("command not found: %s", strings.Join(args, " "))
		}
		return c.Help()
	}),
}

// RegisterCommands adds all subcommands to the root command.
func RegisterCommands() {
	RootCmd.SetHelpCommand(HelpCmd)

	for _, subCmd := range []*cobra.Command{
		deploy.DeployCmd,
		validate.ValidateCmd,
		inspect.InspectCmd,
	} {
		RootCmd.AddCommand(subCmd)
	}
}

// Execute initializes and runs the root command.
func Execute() {
	defer func() {
		_ = logger.Sync()
	}()

	RegisterCommands()

	if err := RootCmd.Execute(); err != nil {
		if ship_err.IsExpectedUserError(err) {
			logger.L().Warn("CLI completed with user error", zap.Error(err))
			os.Exit(0)
		}
		logger.L().Error("CLI execution error", zap.Error(err))
		os.Exit(ship_err.GetExitCode(err))
	}
}
