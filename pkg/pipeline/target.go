package pipeline

import (
	"time"
)

// DescriptionPrefix is the fixed prefix of every deployment description.
const DescriptionPrefix = "Auto-deployment "

// DeploymentTarget is a tagged variant: either a brand-new deployment or
// an existing one identified by id. It is resolved once per run, before
// the publish step, so exactly one publish branch can execute.
type DeploymentTarget struct {
	id string
}

// NewDeployment targets the creation of a brand-new deployment.
func NewDeployment() DeploymentTarget {
	return DeploymentTarget{}
}

// ExistingDeployment targets an in-place update of the deployment with
// the given identifier.
func ExistingDeployment(id string) DeploymentTarget {
	return DeploymentTarget{id: id}
}

// ResolveTarget maps the configured identifier onto a target: empty means
// create-new, anything else means update-existing.
func ResolveTarget(id string) DeploymentTarget {
	if id == "" {
		return NewDeployment()
	}
	return ExistingDeployment(id)
}

// IsExisting reports whether the target updates an existing deployment.
func (t DeploymentTarget) IsExisting() bool {
	return t.id != ""
}

// ID returns the deployment identifier, empty for a new deployment.
func (t DeploymentTarget) ID() string {
	return t.id
}

func (t DeploymentTarget) String() string {
	if t.id == "" {
		return "new"
	}
	return "existing:" + t.id
}

// Description builds the deployment description for a run.
func Description(now time.Time) string {
	return DescriptionPrefix + now.Format(time.UnixDate)
}
