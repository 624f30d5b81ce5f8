package ktree

import (
	engine "github.com/hupe1980/ktree/internal/ktree"
)

type options struct {
	logger               *Logger
	arenaChunkSlots      int
	splitIterationCap    int
	initialClusterChoice engine.InitialClusterChoice
}

// Option configures a Tree constructed by New.
//
// Today options primarily exist to avoid exploding the constructor's
// signature. Breaking changes are expected while this package remains
// pre-release.
type Option func(*options)

// WithLogger configures structured logging for tree operations. Pass
// nil to disable logging; that substitutes NoopLogger() rather than
// leaving the tree's logger nil.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithArenaChunkSize configures the number of node slots allocated per
// arena chunk. Larger chunks reduce allocator contention under heavy
// concurrent insertion at the cost of coarser-grained memory growth.
func WithArenaChunkSize(slots int) Option {
	return func(o *options) {
		o.arenaChunkSlots = slots
	}
}

// WithSplitIterationCap bounds the number of Elkan 2-means iterations
// the split engine will run before accepting its current assignment.
// Defaults to 64.
func WithSplitIterationCap(n int) Option {
	return func(o *options) {
		o.splitIterationCap = n
	}
}

// InitialClusterChoice selects how the split engine picks the second
// 2-means seed relative to the first.
type InitialClusterChoice = engine.InitialClusterChoice

const (
	// Nearest picks the second seed nearest the first. This is the
	// tree's default and reproduces the original implementation's
	// actual (not its commented) behaviour.
	Nearest = engine.Nearest
	// Furthest picks the second seed furthest from the first, in the
	// spirit of k-means++ seeding.
	Furthest = engine.Furthest
)

// WithInitialClusterChoice configures how the split engine picks its
// second 2-means seed. Defaults to Nearest.
func WithInitialClusterChoice(choice InitialClusterChoice) Option {
	return func(o *options) {
		o.initialClusterChoice = choice
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger: NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
