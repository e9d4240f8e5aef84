// pkg/clasp/deploy.go

package clasp

import (
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/scriptship/scriptship/pkg/pipeline"
	"github.com/scriptship/scriptship/pkg/ship_err"
	"github.com/scriptship/scriptship/pkg/ship_io"
)

// Deploy publishes a deployment of the previously pushed source. The
// target decides the branch: an existing deployment is updated in place,
// otherwise a brand-new deployment is created. Exactly one of the two
// happens per call.
func (c *Client) Deploy(rc *ship_io.RuntimeContext, target pipeline.DeploymentTarget, description string) error {
	logger := otelzap.Ctx(rc.Ctx)

	args := []string{"deploy", "--description", description}
	if target.IsExisting() {
		args = append(args, "--deploymentId", target.ID())
		logger.Info("Updating existing deployment",
			zap.String("deployment_id", target.ID()),
			zap.String("description", description))
	} else {
		logger.Info("Creating new deployment",
			zap.String("description", description))
	}

	out, err := c.exec(rc, binary, args...)
	if err != nil {
		return ship_err.NewDeployError("failed to publish deployment", err,
			"Check the deployment identifier still exists on the platform")
	}

	logger.Info("Deployment published", zap.String("output", strings.TrimSpace(out)))
	return nil
}
