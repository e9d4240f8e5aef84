package pipeline

import (
	"time"
)

// ExecutionStatus represents the status of a pipeline execution
type ExecutionStatus string

const (
	StatusPending   ExecutionStatus = "pending"
	StatusRunning   ExecutionStatus = "running"
	StatusSucceeded ExecutionStatus = "succeeded"
	StatusFailed    ExecutionStatus = "failed"
)

// Stage names, in execution order.
const (
	StageSource     = "source"
	StageToolchain  = "toolchain"
	StageCLI        = "cli"
	StageCredential = "credential"
	StagePush       = "push"
	StageDeploy     = "deploy"
)

// TriggerInfo records what state of the source tree the run deployed.
type TriggerInfo struct {
	Type      string    `json:"type" yaml:"type"`
	Branch    string    `json:"branch" yaml:"branch"`
	Commit    string    `json:"commit" yaml:"commit"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Execution is the persisted record of one pipeline run.
type Execution struct {
	ID          string           `json:"id" yaml:"id"`
	Project     string           `json:"project" yaml:"project"`
	Status      ExecutionStatus  `json:"status" yaml:"status"`
	Trigger     TriggerInfo      `json:"trigger" yaml:"trigger"`
	Target      string           `json:"target" yaml:"target"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	StartTime   time.Time        `json:"start_time" yaml:"start_time"`
	EndTime     *time.Time       `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Duration    time.Duration    `json:"duration" yaml:"duration"`
	Stages      []StageExecution `json:"stages" yaml:"stages"`
	Error       string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// StageExecution represents the execution of a single stage
type StageExecution struct {
	Name      string          `json:"name" yaml:"name"`
	Status    ExecutionStatus `json:"status" yaml:"status"`
	StartTime time.Time       `json:"start_time" yaml:"start_time"`
	EndTime   *time.Time      `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Duration  time.Duration   `json:"duration" yaml:"duration"`
	Error     string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// StageNames returns the names of the stages recorded so far.
func (e *Execution) StageNames() []string {
	names := make([]string, 0, len(e.Stages))
	for _, s := range e.Stages {
		names = append(names, s.Name)
	}
	return names
}
