// pkg/credential/credential.go
//
// Scoped materialization of the platform credential. The credential exists
// on disk only between Materialize and Release; Release runs on every exit
// path and never fails the run.

package credential

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/scriptship/scriptship/pkg/secrets"
	"github.com/scriptship/scriptship/pkg/ship_err"
	"github.com/scriptship/scriptship/pkg/ship_io"
)

// Handle owns one materialized credential file for the duration of a run.
type Handle struct {
	mu       sync.Mutex
	path     string
	released bool
}

// Path returns the location of the materialized credential file.
func (h *Handle) Path() string {
	return h.path
}

// Materialize fetches the secret, validates it parses as JSON, and writes
// it to path with owner-only permissions. A credential that is not valid
// JSON is fatal; the offending content is included in the error so the
// operator can see what the secret actually held.
func Materialize(rc *ship_io.RuntimeContext, provider secrets.Provider, path string) (*Handle, error) {
	logger := otelzap.Ctx(rc.Ctx)

	logger.Info("Materializing credential",
		zap.String("source", provider.Describe()),
		zap.String("path", path))

	value, err := provider.Fetch(rc.Ctx)
	if err != nil {
		return nil, cerr.Wrap(err, "failed to fetch credential")
	}

	if !json.Valid([]byte(value)) {
		return nil, ship_err.NewCredentialError(
			"credential is not valid JSON",
			nil,
			value,
		)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, cerr.Wrap(err, "failed to create credential directory")
	}
	if err := os.WriteFile(path, []byte(value), 0600); err != nil {
		return nil, cerr.Wrap(err, "failed to write credential file")
	}

	logger.Debug("Credential materialized", zap.String("path", path))

	return &Handle{path: path}, nil
}

// Release deletes the credential file. It is idempotent and treats an
// absent file as already released. The returned error is informational
// only; callers must never fail the run on it.
func (h *Handle) Release(rc *ship_io.RuntimeContext) error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	h.released = true

	logger := otelzap.Ctx(rc.Ctx)
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove credential file",
			zap.String("path", h.path),
			zap.Error(err))
		return cerr.Wrap(err, "failed to remove credential file")
	}
	logger.Info("Credential file removed", zap.String("path", h.path))
	return nil
}
