package inspect

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/scriptship/scriptship/pkg/config"
	"github.com/scriptship/scriptship/pkg/pipeline"
	"github.com/scriptship/scriptship/pkg/ship_cli"
	"github.com/scriptship/scriptship/pkg/ship_err"
	"github.com/scriptship/scriptship/pkg/ship_io"
)

// InspectCmd groups read-only views over persisted execution records.
var InspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect past pipeline runs",
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent pipeline runs for a project",
	RunE:  ship_cli.Wrap(runList),
}

var runCmd = &cobra.Command{
	Use:   "run <execution-id>",
	Short: "Show one pipeline run",
	Args:  cobra.ExactArgs(1),
	RunE:  ship_cli.Wrap(runShow),
}

func init() {
	runsCmd.Flags().String("project-dir", ".", "Directory containing the script project")
	runsCmd.Flags().Int("limit", 10, "Maximum number of runs to list")
	InspectCmd.AddCommand(runsCmd)
	InspectCmd.AddCommand(runCmd)
}

func runList(rc *ship_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(rc, cmd.Flags())
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	store, err := pipeline.NewFileStore(cfg.StateDir, rc.Log)
	if err != nil {
		return err
	}

	project := pipeline.ProjectName(cfg.ProjectDir)
	executions, err := store.ListExecutions(project, limit)
	if err != nil {
		return err
	}
	if len(executions) == 0 {
		return ship_err.NewExpectedError(
			ship_err.NewValidationError("no runs recorded for project " + project))
	}

	return ship_io.PrintYAML(os.Stdout, executions)
}

func runShow(rc *ship_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(rc, cmd.Flags())
	if err != nil {
		return err
	}

	store, err := pipeline.NewFileStore(cfg.StateDir, rc.Log)
	if err != nil {
		return err
	}

	execution, err := store.GetExecution(args[0])
	if err != nil {
		return ship_err.NewExpectedError(err)
	}

	return ship_io.PrintYAML(os.Stdout, execution)
}
