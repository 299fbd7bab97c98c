package lib

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/go-containerregistry/pkg/authn"

	"github.com/harness/harbor-migrator/module/migrate/adapter"
)

// CreateCraneKeychain combines the source and destination keychains so a single copy can
// pull from one registry and push to the other.
func CreateCraneKeychain(ctx context.Context, srcAdapter, destAdapter adapter.Adapter) (authn.Keychain, error) {
	srcKeychain, err := srcAdapter.GetKeyChain(ctx)
	if err != nil {
		return nil, err
	}
	dstKeychain, err := destAdapter.GetKeyChain(ctx)
	if err != nil {
		return nil, err
	}

	return authn.NewMultiKeychain(srcKeychain, dstKeychain), nil
}

type staticKeychain struct {
	username string
	password string
	hostname string
}

// NewStaticKeychain resolves username/password for hostname and anonymous for any other
// registry, so that a multi-keychain falls through to the next entry.
func NewStaticKeychain(username, password, hostname string) authn.Keychain {
	return staticKeychain{
		username: username,
		password: password,
		hostname: hostname,
	}
}

func (k staticKeychain) Resolve(r authn.Resource) (authn.Authenticator, error) {
	if k.username == "" || k.password == "" {
		return authn.Anonymous, nil
	}

	serverURL, err := url.Parse("https://" + r.RegistryStr())
	if err != nil {
		return authn.Anonymous, nil
	}

	if strings.EqualFold(serverURL.Host, k.hostname) || strings.EqualFold(serverURL.Hostname(), k.hostname) {
		return &authn.Basic{Username: k.username, Password: k.password}, nil
	}
	return authn.Anonymous, nil
}
