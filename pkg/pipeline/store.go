package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Store persists execution records.
type Store interface {
	SaveExecution(execution *Execution) error
	GetExecution(id string) (*Execution, error)
	ListExecutions(project string, limit int) ([]*Execution, error)
}

// FileStore implements Store using filesystem storage. Concurrent pipeline
// runs are not coordinated beyond keeping the store's own files coherent;
// the last writer wins.
type FileStore struct {
	mu       sync.RWMutex
	basePath string
	logger   *zap.Logger
}

type executionIndex struct {
	ExecutionIDs []string `json:"execution_ids"`
}

// NewFileStore creates a new filesystem-based execution store.
func NewFileStore(basePath string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(basePath, "executions"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &FileStore{
		basePath: basePath,
		logger:   logger,
	}, nil
}

// SaveExecution saves an execution record to storage.
func (s *FileStore) SaveExecution(execution *Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	execDir := filepath.Join(s.basePath, "executions", execution.Project)
	if err := os.MkdirAll(execDir, 0755); err != nil {
		return fmt.Errorf("failed to create execution directory: %w", err)
	}

	execFile := filepath.Join(execDir, fmt.Sprintf("%s.json", execution.ID))
	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	if err := os.WriteFile(execFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write execution file: %w", err)
	}

	// Update latest symlink
	latestLink := filepath.Join(execDir, "latest")
	_ = os.Remove(latestLink)
	if err := os.Symlink(execFile, latestLink); err != nil {
		s.logger.Warn("Failed to create latest symlink", zap.Error(err))
	}

	if err := s.updateIndex(execution.Project, execution.ID); err != nil {
		s.logger.Warn("Failed to update execution index", zap.Error(err))
	}

	s.logger.Debug("Saved execution",
		zap.String("execution_id", execution.ID),
		zap.String("project", execution.Project),
		zap.String("status", string(execution.Status)))

	return nil
}

// GetExecution retrieves an execution record by ID.
func (s *FileStore) GetExecution(id string) (*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getExecutionLocked(id)
}

func (s *FileStore) getExecutionLocked(id string) (*Execution, error) {
	projectsDir := filepath.Join(s.basePath, "executions")
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		execFile := filepath.Join(projectsDir, entry.Name(), fmt.Sprintf("%s.json", id))
		if _, err := os.Stat(execFile); err != nil {
			continue
		}
		data, err := os.ReadFile(execFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read execution file: %w", err)
		}

		var execution Execution
		if err := json.Unmarshal(data, &execution); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
		}
		return &execution, nil
	}

	return nil, fmt.Errorf("execution not found: %s", id)
}

// ListExecutions lists executions for a project, newest first.
func (s *FileStore) ListExecutions(project string, limit int) ([]*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		return []*Execution{}, nil
	}

	indexFile := filepath.Join(s.basePath, "executions", project, "index.json")
	if _, err := os.Stat(indexFile); os.IsNotExist(err) {
		return []*Execution{}, nil
	}

	data, err := os.ReadFile(indexFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var index executionIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}

	executions := make([]*Execution, 0, limit)
	for i := len(index.ExecutionIDs) - 1; i >= 0 && len(executions) < limit; i-- {
		exec, err := s.getExecutionLocked(index.ExecutionIDs[i])
		if err != nil {
			s.logger.Warn("Failed to load execution from index",
				zap.String("execution_id", index.ExecutionIDs[i]),
				zap.Error(err))
			continue
		}
		executions = append(executions, exec)
	}

	return executions, nil
}

func (s *FileStore) updateIndex(project, executionID string) error {
	indexFile := filepath.Join(s.basePath, "executions", project, "index.json")

	var index executionIndex
	if data, err := os.ReadFile(indexFile); err == nil {
		_ = json.Unmarshal(data, &index)
	}

	for _, id := range index.ExecutionIDs {
		if id == executionID {
			return nil
		}
	}
	index.ExecutionIDs = append(index.ExecutionIDs, executionID)

	data, err := json.MarshalIndent(&index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return os.WriteFile(indexFile, data, 0644)
}
