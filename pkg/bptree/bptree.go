// Package bptree provides an in-memory B+Tree with ordered iteration.
package bptree

import (
	"sort"
	"sync"
)

// DefaultOrder is the fallback branching factor if a user-supplied order is too small.
const DefaultOrder = 4

// CompareFunc orders keys. It returns a negative number when a < b, zero when
// a == b and a positive number when a > b.
type CompareFunc[K any] func(a, b K) int

// BPlusTree is an ordered map. Writers are serialized; any number of readers
// may run concurrently with each other.
type BPlusTree[K any, V any] struct {
	m      sync.RWMutex
	root   *node[K, V]
	order  int
	height int
	size   int
	cmp    CompareFunc[K]
}

// node represents both internal and leaf nodes in the B+Tree.
type node[K any, V any] struct {
	isLeaf   bool
	keys     []K
	children []*node[K, V] // used if !isLeaf
	values   []V           // used if isLeaf
	parent   *node[K, V]
	next     *node[K, V] // leaf-link pointer, for range scans
}

// NewBPlusTree creates a B+Tree with the given order and key ordering.
// If the specified order < 3, DefaultOrder is used.
func NewBPlusTree[K any, V any](order int, cmp CompareFunc[K]) *BPlusTree[K, V] {
	if order < 3 {
		order = DefaultOrder
	}
	return &BPlusTree[K, V]{
		root: &node[K, V]{
			isLeaf: true,
			keys:   make([]K, 0, order),
			values: make([]V, 0, order),
		},
		order:  order,
		height: 1,
		cmp:    cmp,
	}
}

// Height returns the number of levels in the tree.
func (tree *BPlusTree[K, V]) Height() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.height
}

// Len returns the number of keys stored.
func (tree *BPlusTree[K, V]) Len() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.size
}

// childIndex returns which child pointer to follow for key in an internal node.
func (tree *BPlusTree[K, V]) childIndex(keys []K, key K) int {
	return sort.Search(len(keys), func(i int) bool {
		return tree.cmp(key, keys[i]) < 0
	})
}

// keyIndex returns the first position in a leaf whose key is >= key.
func (tree *BPlusTree[K, V]) keyIndex(keys []K, key K) int {
	return sort.Search(len(keys), func(i int) bool {
		return tree.cmp(keys[i], key) >= 0
	})
}

func (tree *BPlusTree[K, V]) leafFor(key K) *node[K, V] {
	current := tree.root
	for !current.isLeaf {
		current = current.children[tree.childIndex(current.keys, key)]
	}
	return current
}

func (tree *BPlusTree[K, V]) firstLeaf() *node[K, V] {
	current := tree.root
	for !current.isLeaf {
		current = current.children[0]
	}
	return current
}

// Search locates the value associated with key.
func (tree *BPlusTree[K, V]) Search(key K) (V, bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.leafFor(key)
	idx := tree.keyIndex(leaf.keys, key)
	if idx < len(leaf.keys) && tree.cmp(leaf.keys[idx], key) == 0 {
		return leaf.values[idx], true
	}
	var zero V
	return zero, false
}

// Insert adds a (key, value) pair, replacing the value if key is already present.
// It reports whether the key was newly added.
func (tree *BPlusTree[K, V]) Insert(key K, value V) bool {
	tree.m.Lock()
	defer tree.m.Unlock()

	leaf := tree.leafFor(key)
	idx := tree.keyIndex(leaf.keys, key)
	if idx < len(leaf.keys) && tree.cmp(leaf.keys[idx], key) == 0 {
		leaf.values[idx] = value
		return false
	}

	var zeroK K
	var zeroV V
	leaf.keys = append(leaf.keys, zeroK)
	leaf.values = append(leaf.values, zeroV)
	copy(leaf.keys[idx+1:], leaf.keys[idx:])
	copy(leaf.values[idx+1:], leaf.values[idx:])
	leaf.keys[idx] = key
	leaf.values[idx] = value
	tree.size++

	if len(leaf.keys) > tree.order {
		tree.splitLeaf(leaf)
	}
	return true
}

// Ascend calls fn for every pair in key order until fn returns false.
func (tree *BPlusTree[K, V]) Ascend(fn func(key K, value V) bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	tree.walk(tree.firstLeaf(), 0, fn)
}

// AscendFrom calls fn for every pair with key >= start, in key order, until fn
// returns false.
func (tree *BPlusTree[K, V]) AscendFrom(start K, fn func(key K, value V) bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.leafFor(start)
	tree.walk(leaf, tree.keyIndex(leaf.keys, start), fn)
}

func (tree *BPlusTree[K, V]) walk(leaf *node[K, V], idx int, fn func(K, V) bool) {
	for leaf != nil {
		for ; idx < len(leaf.keys); idx++ {
			if !fn(leaf.keys[idx], leaf.values[idx]) {
				return
			}
		}
		leaf = leaf.next
		idx = 0
	}
}

// splitLeaf handles splitting a leaf node that has overflowed.
func (tree *BPlusTree[K, V]) splitLeaf(leaf *node[K, V]) {
	mid := len(leaf.keys) / 2

	newLeaf := &node[K, V]{
		isLeaf: true,
		keys:   append([]K{}, leaf.keys[mid:]...),
		values: append([]V{}, leaf.values[mid:]...),
		next:   leaf.next,
		parent: leaf.parent,
	}

	leaf.keys = leaf.keys[:mid]
	leaf.values = leaf.values[:mid]
	leaf.next = newLeaf

	tree.insertInParent(leaf, newLeaf.keys[0], newLeaf)
}

// insertInParent links right as the sibling after left, separated by key,
// growing a new root when left has no parent.
func (tree *BPlusTree[K, V]) insertInParent(left *node[K, V], key K, right *node[K, V]) {
	parent := left.parent
	if parent == nil {
		newRoot := &node[K, V]{
			keys:     []K{key},
			children: []*node[K, V]{left, right},
		}
		left.parent = newRoot
		right.parent = newRoot
		tree.root = newRoot
		tree.height++
		return
	}

	idx := tree.childIndex(parent.keys, key)

	var zeroK K
	parent.keys = append(parent.keys, zeroK)
	copy(parent.keys[idx+1:], parent.keys[idx:])
	parent.keys[idx] = key

	parent.children = append(parent.children, nil)
	copy(parent.children[idx+2:], parent.children[idx+1:])
	parent.children[idx+1] = right
	right.parent = parent

	if len(parent.keys) > tree.order {
		tree.splitInternal(parent)
	}
}

// splitInternal handles splitting an internal node that has overflowed.
func (tree *BPlusTree[K, V]) splitInternal(internal *node[K, V]) {
	mid := len(internal.keys) / 2
	splitKey := internal.keys[mid]

	newInternal := &node[K, V]{
		keys:     append([]K{}, internal.keys[mid+1:]...),
		children: append([]*node[K, V]{}, internal.children[mid+1:]...),
		parent:   internal.parent,
	}
	for _, child := range newInternal.children {
		child.parent = newInternal
	}

	internal.keys = internal.keys[:mid]
	internal.children = internal.children[:mid+1]

	tree.insertInParent(internal, splitKey, newInternal)
}
