package copier

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"

	httputil "github.com/harness/harbor-migrator/module/migrate/http"
)

type orasCopier struct {
	opts   Options
	client *auth.Client
}

func newORASCopier(opts Options) *orasCopier {
	base := &http.Client{
		Transport: retry.NewTransport(httputil.GetHTTPTransport(httputil.WithInsecure(opts.Insecure))),
	}
	c := &orasCopier{opts: opts}
	c.client = &auth.Client{
		Client:     base,
		Cache:      auth.NewCache(),
		Credential: c.credential,
		Header:     http.Header{"User-Agent": {opts.UserAgent}},
	}
	return c
}

// credential bridges the keychain used by crane to oras' credential lookup.
func (c *orasCopier) credential(_ context.Context, hostport string) (auth.Credential, error) {
	reg, err := name.NewRegistry(hostport, name.WeakValidation)
	if err != nil {
		return auth.EmptyCredential, err
	}
	authenticator, err := c.opts.Keychain.Resolve(reg)
	if err != nil {
		return auth.EmptyCredential, err
	}
	if authenticator == authn.Anonymous {
		return auth.EmptyCredential, nil
	}
	cfg, err := authenticator.Authorization()
	if err != nil {
		return auth.EmptyCredential, err
	}
	return auth.Credential{
		Username:     cfg.Username,
		Password:     cfg.Password,
		RefreshToken: cfg.IdentityToken,
		AccessToken:  cfg.RegistryToken,
	}, nil
}

func (c *orasCopier) repository(ref name.Reference) (*remote.Repository, error) {
	repo, err := remote.NewRepository(ref.Context().Name())
	if err != nil {
		return nil, err
	}
	repo.Client = c.client
	repo.PlainHTTP = ref.Context().Registry.Scheme() == "http"
	return repo, nil
}

func (c *orasCopier) Copy(ctx context.Context, src, dst string) error {
	srcRef, err := name.ParseReference(src)
	if err != nil {
		return fmt.Errorf("parse source %s: %w", src, err)
	}
	dstRef, err := name.ParseReference(dst)
	if err != nil {
		return fmt.Errorf("parse destination %s: %w", dst, err)
	}

	srcRepo, err := c.repository(srcRef)
	if err != nil {
		return err
	}
	dstRepo, err := c.repository(dstRef)
	if err != nil {
		return err
	}

	_, err = oras.Copy(ctx, srcRepo, srcRef.Identifier(), dstRepo, dstRef.Identifier(), oras.DefaultCopyOptions)
	return err
}
