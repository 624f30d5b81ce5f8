package ktree

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/ktree/vector"
)

// BulkInsert fans a batch of inserts out across runtime.NumCPU()
// goroutines, each calling the existing retry-looped Insert. It
// introduces no new synchronization primitive beyond what Insert
// already uses; it is pure fan-out.
func (t *Tree) BulkInsert(ctx context.Context, vs []vector.Vector) error {
	if len(vs) == 0 {
		return nil
	}

	workers := runtime.NumCPU()
	if workers > len(vs) {
		workers = len(vs)
	}
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(vs) + workers - 1) / workers

	for start := 0; start < len(vs); start += chunk {
		end := start + chunk
		if end > len(vs) {
			end = len(vs)
		}
		batch := vs[start:end]

		g.Go(func() error {
			for _, v := range batch {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := t.Insert(v); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}
