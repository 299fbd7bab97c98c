package copier

import (
	"context"

	"github.com/google/go-containerregistry/pkg/crane"
)

type craneCopier struct {
	opts Options
}

func (c *craneCopier) Copy(ctx context.Context, src, dst string) error {
	craneOpts := []crane.Option{
		crane.WithUserAgent(c.opts.UserAgent),
		crane.WithContext(ctx),
		crane.WithJobs(c.opts.Jobs),
		crane.WithAuthFromKeychain(c.opts.Keychain),
	}
	if c.opts.Insecure {
		craneOpts = append(craneOpts, crane.Insecure)
	}
	return crane.Copy(src, dst, craneOpts...)
}
