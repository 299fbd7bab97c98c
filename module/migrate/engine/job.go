package engine

import "context"

// Job is one unit of work run by the Engine. A failing step skips the remaining steps of
// that job only.
type Job interface {
	Info() string
	Pre(ctx context.Context) error
	Migrate(ctx context.Context) error
	Post(ctx context.Context) error
}
