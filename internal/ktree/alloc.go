package ktree

import (
	"github.com/hupe1980/ktree/internal/arena"
	"github.com/hupe1980/ktree/vector"
)

// DefaultArenaChunkSlots is the default number of Node slots per arena
// chunk, mirroring the teacher's DefaultChunkSize but expressed in
// slots rather than bytes since Go's arena is type-safe.
const DefaultArenaChunkSlots = arena.DefaultChunkSlots

// Allocator is the opaque bulk allocator the engine consumes from
// outside (spec's "External Interfaces": arena treated as raw, typed
// storage, never individually freed).
type Allocator interface {
	AllocNode() (*Node, error)
	AllocVector(dim int) vector.Vector
}

type arenaAllocator struct {
	nodes *arena.Arena[Node]
}

// NewAllocator builds an Allocator backed by a chunked arena of Nodes.
func NewAllocator(chunkSlots int) Allocator {
	return &arenaAllocator{nodes: arena.New[Node](chunkSlots)}
}

func (a *arenaAllocator) AllocNode() (*Node, error) {
	_, n, err := a.nodes.Alloc()
	if err != nil {
		return nil, &ErrArenaExhausted{cause: err}
	}
	return n, nil
}

// AllocVector allocates a fresh, zeroed vector. Vectors are small and
// variable-length per tree dimensionality; they are not bulk-arena'd
// since the arena's value is amortizing the fixed Node struct's
// allocation cost, not the already-cheap backing float32 slice.
func (a *arenaAllocator) AllocVector(dim int) vector.Vector {
	return vector.New(dim)
}
