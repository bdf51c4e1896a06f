// Package pool implements a block arena for values of a single type.
// Elements are addressed by integer handles so that structures built on
// top of the arena can link elements without holding pointers.
package pool

import (
	"errors"
	"fmt"
)

// Handle identifies an element allocated from a Pool.
// The zero Handle is never returned by Allocate and marks absence.
type Handle int32

// Nil is the absent handle.
const Nil Handle = 0

// Pool hands out fixed-size elements carved from a table of equally sized
// blocks. Blocks are never moved or freed once allocated, so pointers
// returned by At stay valid until Reset.
type Pool[T any] struct {
	blockSize int
	blocks    [][]T
	allocated []bool
	// block is the index of the block the bump cursor points into.
	block int
	used  int
	free  []Handle
	live  int
}

// New returns a pool whose blocks hold blockSize elements.
func New[T any](blockSize int) *Pool[T] {
	if blockSize < 1 {
		panic("pool: block size must be positive")
	}
	return &Pool[T]{
		blockSize: blockSize,
		blocks:    make([][]T, 0, 1),
		block:     -1,
		used:      blockSize,
	}
}

// Allocate returns a handle to a zeroed element. Released handles are
// reused before the bump cursor advances.
func (p *Pool[T]) Allocate() Handle {
	var h Handle
	if n := len(p.free); n > 0 {
		h = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		if p.used == p.blockSize {
			p.nextBlock()
		}
		h = Handle(p.block*p.blockSize + p.used + 1)
		p.used++
	}
	idx := int(h) - 1
	var zero T
	p.blocks[idx/p.blockSize][idx%p.blockSize] = zero
	p.allocated[idx] = true
	p.live++
	return h
}

func (p *Pool[T]) nextBlock() {
	p.block++
	p.used = 0
	if p.block < len(p.blocks) {
		return // Block kept from before a Reset.
	}
	if len(p.blocks) == cap(p.blocks) {
		table := make([][]T, len(p.blocks), 2*cap(p.blocks))
		copy(table, p.blocks)
		p.blocks = table
	}
	p.blocks = append(p.blocks, make([]T, p.blockSize))
	p.allocated = append(p.allocated, make([]bool, p.blockSize)...)
}

// At returns a pointer to the element identified by h.
func (p *Pool[T]) At(h Handle) *T {
	idx := int(h) - 1
	if idx < 0 || idx >= len(p.allocated) || !p.allocated[idx] {
		panic("pool: access to unallocated handle")
	}
	return &p.blocks[idx/p.blockSize][idx%p.blockSize]
}

// Release returns the element identified by h to the pool.
func (p *Pool[T]) Release(h Handle) error {
	idx := int(h) - 1
	if idx < 0 || idx >= len(p.allocated) {
		return errors.New("release of nonexistent resource")
	}
	if !p.allocated[idx] {
		return errors.New("release of unacquired resource")
	}
	p.allocated[idx] = false
	p.free = append(p.free, h)
	p.live--
	return nil
}

// Reset drops all outstanding allocations. Memory already obtained from the
// runtime is kept for subsequent allocations.
func (p *Pool[T]) Reset() {
	for i := range p.allocated {
		p.allocated[i] = false
	}
	p.free = p.free[:0]
	p.block = -1
	p.used = p.blockSize
	p.live = 0
}

// Len returns the number of live elements.
func (p *Pool[T]) Len() int { return p.live }

// Cap returns the number of elements the pool can hold without growing.
func (p *Pool[T]) Cap() int { return len(p.blocks) * p.blockSize }

// AssertAllReleased checks no element is live. Should be called after
// releasing a structure's elements to find leaks.
func (p *Pool[T]) AssertAllReleased() error {
	if p.live != 0 {
		return fmt.Errorf("%d live %T elements found in pool, memory leak?", p.live, *new(T))
	}
	return nil
}
