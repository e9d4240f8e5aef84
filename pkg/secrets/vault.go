// pkg/secrets/vault.go

package secrets

import (
	"context"

	cerr "github.com/cockroachdb/errors"
	vaultapi "github.com/hashicorp/vault/api"
)

// VaultProvider reads the secret from a HashiCorp Vault KV v2 mount.
// VAULT_ADDR and VAULT_TOKEN come from the standard Vault environment.
type VaultProvider struct {
	// Mount is the KV v2 mount point, e.g. "secret".
	Mount string
	// Path is the secret path below the mount.
	Path string
	// Key selects the field holding the credential document.
	Key string

	client *vaultapi.Client
}

// NewVaultProvider builds a provider using Vault's default environment
// configuration.
func NewVaultProvider(mount, path, key string) (*VaultProvider, error) {
	cfg := vaultapi.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, cerr.Wrap(err, "failed to read Vault environment")
	}
	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, cerr.Wrap(err, "failed to create Vault client")
	}
	return &VaultProvider{
		Mount:  mount,
		Path:   path,
		Key:    key,
		client: client,
	}, nil
}

func (p *VaultProvider) Fetch(ctx context.Context) (string, error) {
	secret, err := p.client.KVv2(p.Mount).Get(ctx, p.Path)
	if err != nil {
		return "", cerr.Wrapf(err, "failed to read Vault secret %s/%s", p.Mount, p.Path)
	}
	raw, ok := secret.Data[p.Key]
	if !ok {
		return "", cerr.Newf("Vault secret %s/%s has no key %q", p.Mount, p.Path, p.Key)
	}
	value, ok := raw.(string)
	if !ok || value == "" {
		return "", cerr.Newf("Vault secret %s/%s key %q is not a non-empty string", p.Mount, p.Path, p.Key)
	}
	return value, nil
}

func (p *VaultProvider) Describe() string {
	return "vault:" + p.Mount + "/" + p.Path + "#" + p.Key
}
