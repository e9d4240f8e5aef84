// pkg/secrets/resolve.go

package secrets

import (
	"strings"

	cerr "github.com/cockroachdb/errors"
)

// Resolve picks the credential source for a run. An explicit file wins,
// then a Vault path, then the environment variable. Exactly one provider
// is consulted per run.
func Resolve(filePath, vaultPath, vaultKey, envVar string) (Provider, error) {
	switch {
	case filePath != "":
		return FileProvider{Path: filePath}, nil
	case vaultPath != "":
		mount, path, found := strings.Cut(vaultPath, "/")
		if !found || path == "" {
			return nil, cerr.Newf("vault path %q must be of the form mount/path", vaultPath)
		}
		return NewVaultProvider(mount, path, vaultKey)
	case envVar != "":
		return EnvProvider{Var: envVar}, nil
	default:
		return nil, cerr.New("no credential source configured")
	}
}
