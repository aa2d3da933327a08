package world

import (
	"errors"
	"fmt"
	"iter"
)

// MaxPoolSize bounds every pool index.
const MaxPoolSize = 1 << 16

// ErrPoolIndex is returned for indexes outside [0, MaxPoolSize).
var ErrPoolIndex = errors.New("pool index out of range")

// Pool is an index-stable arena. Items keep their index for life; deleting an
// item leaves a hole that GetOrCreate can refill.
type Pool[T any] struct {
	items []*T
	n     int
}

// GetOrCreate returns the item at index, allocating it if the slot is empty.
func (p *Pool[T]) GetOrCreate(index int) (*T, error) {
	if index < 0 || index >= MaxPoolSize {
		return nil, fmt.Errorf("%w: %d", ErrPoolIndex, index)
	}
	if index >= len(p.items) {
		p.items = append(p.items, make([]*T, index+1-len(p.items))...)
	}
	if p.items[index] == nil {
		p.items[index] = new(T)
		p.n++
	}
	return p.items[index], nil
}

// Get returns the item at index or nil.
func (p *Pool[T]) Get(index int) *T {
	if index < 0 || index >= len(p.items) {
		return nil
	}
	return p.items[index]
}

// Delete empties the slot at index.
func (p *Pool[T]) Delete(index int) {
	if p.Get(index) == nil {
		return
	}
	p.items[index] = nil
	p.n--
	for len(p.items) > 0 && p.items[len(p.items)-1] == nil {
		p.items = p.items[:len(p.items)-1]
	}
}

// Len is the number of live items.
func (p *Pool[T]) Len() int { return p.n }

// All yields live items in index order.
func (p *Pool[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i, it := range p.items {
			if it != nil && !yield(i, it) {
				return
			}
		}
	}
}

// Clear drops every item.
func (p *Pool[T]) Clear() {
	p.items = nil
	p.n = 0
}
