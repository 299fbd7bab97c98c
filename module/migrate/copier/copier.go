package copier

import (
	"context"
	"fmt"

	"github.com/google/go-containerregistry/pkg/authn"

	"github.com/harness/harbor-migrator/module/migrate/types"
)

const defaultUserAgent = "harbor-migrator"

// Copier copies one image, index or artifact by reference. Implementations must keep
// manifest lists intact so that multi-platform images stay multi-platform.
type Copier interface {
	Copy(ctx context.Context, src, dst string) error
}

type Options struct {
	Keychain  authn.Keychain
	Insecure  bool
	Jobs      int
	UserAgent string
}

// New returns the copier implementation selected by t.
func New(t types.CopierType, opts Options) (Copier, error) {
	if opts.Keychain == nil {
		opts.Keychain = authn.DefaultKeychain
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Jobs <= 0 {
		opts.Jobs = 1
	}

	switch t {
	case types.CopierCrane, "":
		return &craneCopier{opts: opts}, nil
	case types.CopierORAS:
		return newORASCopier(opts), nil
	default:
		return nil, fmt.Errorf("unsupported copier %q", t)
	}
}
