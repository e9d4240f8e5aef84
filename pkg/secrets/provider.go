// pkg/secrets/provider.go
//
// Secret-value providers. A provider yields one opaque secret string; the
// pipeline never interprets it beyond requiring it to parse as JSON when
// materialized as a credential.

package secrets

import (
	"context"
	"os"
	"strings"

	cerr "github.com/cockroachdb/errors"

	"github.com/scriptship/scriptship/pkg/ship_err"
)

// Provider supplies a single secret value.
type Provider interface {
	// Fetch returns the secret value. An empty or missing secret is an error.
	Fetch(ctx context.Context) (string, error)
	// Describe names the source for logs without revealing the value.
	Describe() string
}

// EnvProvider reads the secret from an environment variable. This is the
// default source for CI runners that inject secrets into the environment.
type EnvProvider struct {
	Var string
}

func (p EnvProvider) Fetch(ctx context.Context) (string, error) {
	if p.Var == "" {
		return "", ship_err.ErrCredentialSourceUnset
	}
	value, ok := os.LookupEnv(p.Var)
	if !ok {
		return "", cerr.Newf("environment variable %s is not set", p.Var)
	}
	if strings.TrimSpace(value) == "" {
		return "", cerr.Newf("environment variable %s is empty", p.Var)
	}
	return value, nil
}

func (p EnvProvider) Describe() string {
	return "env:" + p.Var
}

// FileProvider reads the secret from a pre-existing file.
type FileProvider struct {
	Path string
}

func (p FileProvider) Fetch(ctx context.Context) (string, error) {
	if p.Path == "" {
		return "", ship_err.ErrCredentialSourceUnset
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return "", cerr.Wrapf(err, "failed to read secret file %s", p.Path)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", cerr.Newf("secret file %s is empty", p.Path)
	}
	return string(data), nil
}

func (p FileProvider) Describe() string {
	return "file:" + p.Path
}
