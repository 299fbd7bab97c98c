package harbor

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-containerregistry/pkg/authn"

	adp "github.com/harness/harbor-migrator/module/migrate/adapter"
	"github.com/harness/harbor-migrator/module/migrate/lib"
	"github.com/harness/harbor-migrator/module/migrate/types"
	"github.com/harness/harbor-migrator/module/migrate/util"
)

func init() {
	if err := adp.RegisterFactory(types.HARBOR, new(factory)); err != nil {
		return
	}
}

type factory struct{}

func (f factory) Create(_ context.Context, config types.RegistryConfig) (adp.Adapter, error) {
	a, err := newAdapter(config)
	if err != nil {
		return nil, err
	}
	return a, nil
}

type adapter struct {
	client *client
	reg    types.RegistryConfig
	host   string
}

func newAdapter(config types.RegistryConfig) (*adapter, error) {
	u, err := url.Parse(config.Endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid harbor endpoint %q", config.Endpoint)
	}
	return &adapter{
		client: newClient(&config, config.Credentials.BasicToken()),
		reg:    config,
		host:   u.Host,
	}, nil
}

// pullCredentials returns the username/password used for registry pulls. Explicit
// credentials win over a decoded API token.
func pullCredentials(creds types.CredentialsConfig) (string, string) {
	if creds.Username != "" {
		return creds.Username, creds.Password
	}
	if creds.Token == "" {
		return "", ""
	}
	raw, err := base64.StdEncoding.DecodeString(creds.Token)
	if err != nil {
		return "", ""
	}
	user, pass, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", ""
	}
	return user, pass
}

func (a *adapter) GetConfig() types.RegistryConfig {
	return a.reg
}

func (a *adapter) GetKeyChain(_ context.Context) (authn.Keychain, error) {
	user, pass := pullCredentials(a.reg.Credentials)
	return lib.NewStaticKeychain(user, pass, a.host), nil
}

// GetOCIImagePath returns <host>/<project>/<repository>.
func (a *adapter) GetOCIImagePath(project, repository string) string {
	return util.GenOCIImagePath(a.host, project, repository)
}

func (a *adapter) ListRepositories(ctx context.Context, project string, pageSize int) ([]string, error) {
	return a.client.listRepositories(ctx, project, pageSize)
}

func (a *adapter) ListArtifacts(ctx context.Context, project, repository string, limit int) (
	[]types.ArtifactRecord,
	error,
) {
	return a.client.listArtifacts(ctx, project, repository, limit)
}
