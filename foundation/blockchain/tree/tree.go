// Package tree maintains the fork tree of blocks. Every path from the
// genesis block to a leaf is a valid chain. Blocks are stored in an arena
// and addressed by a dense Link handle so the tree never holds pointers
// between nodes.
package tree

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
)

// Set of error variables for tree insertion and lookup.
var (
	ErrWrongIndex           = errors.New("wrong index")
	ErrWrongParentBlockhash = errors.New("wrong parent blockhash")
	ErrBlockExists          = errors.New("block already exists")
	ErrBlockNotFound        = errors.New("block not found")
)

// Link is the handle of one node of the tree.
type Link int

// NoLink is the parent of the genesis node.
const NoLink Link = -1

type node struct {
	block    database.Block
	parent   Link
	children []Link
	deltas   map[signature.PublicKey]database.BalanceDelta
}

// Tree is the arena holding every known block. One lock guards the whole
// structure and is held for a single insertion or lookup.
type Tree struct {
	mu     sync.RWMutex
	nodes  []node
	byHash map[string]Link
}

// New constructs a tree rooted at the genesis block.
func New(genesis database.Block) *Tree {
	t := Tree{
		byHash: make(map[string]Link),
	}
	t.add(NoLink, genesis)

	return &t
}

// add appends the block to the arena. The caller must hold the write lock.
func (t *Tree) add(parent Link, block database.Block) Link {
	l := Link(len(t.nodes))
	t.nodes = append(t.nodes, node{
		block:  block,
		parent: parent,
		deltas: block.BalanceDeltas(),
	})
	t.byHash[string(block.Blockhash)] = l

	if parent != NoLink {
		t.nodes[parent].children = append(t.nodes[parent].children, l)
	}

	return l
}

// valid reports whether the link was issued by this tree. The caller must
// hold a lock.
func (t *Tree) valid(l Link) bool {
	return l >= 0 && int(l) < len(t.nodes)
}

// Genesis returns the root of the tree.
func (t *Tree) Genesis() Link {
	return 0
}

// Len returns the number of blocks in the tree.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.nodes)
}

// Block returns the block held by the link. An unknown link returns the
// zero block.
func (t *Tree) Block(l Link) database.Block {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.valid(l) {
		return database.Block{}
	}
	return t.nodes[l].block
}

// Parent returns the parent of the link, NoLink for the genesis block.
func (t *Tree) Parent(l Link) Link {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.valid(l) {
		return NoLink
	}
	return t.nodes[l].parent
}

// Children returns a copy of the children of the link in insertion order.
func (t *Tree) Children(l Link) []Link {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.valid(l) {
		return nil
	}
	return append([]Link(nil), t.nodes[l].children...)
}

// Lookup returns the link holding the block with the specified hash.
func (t *Tree) Lookup(hash database.Blockhash) (Link, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	l, exists := t.byHash[string(hash)]
	return l, exists
}

// =============================================================================

// TryInsert adds the block as a child of the parent link. The block must
// carry the next index and the parent hash. A block already present in the
// tree is rejected so a parent never gets two identical children.
func (t *Tree) TryInsert(parent Link, block database.Block) (Link, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.valid(parent) {
		return NoLink, fmt.Errorf("parent link %d: %w", parent, ErrBlockNotFound)
	}
	pb := t.nodes[parent].block

	if block.Index != pb.Index+1 {
		return NoLink, fmt.Errorf("got %d, exp %d: %w", block.Index, pb.Index+1, ErrWrongIndex)
	}

	if !block.PreviousBlockhash.Equal(pb.Blockhash) {
		return NoLink, fmt.Errorf("got %s, exp %s: %w", block.PreviousBlockhash, pb.Blockhash, ErrWrongParentBlockhash)
	}

	if _, exists := t.byHash[string(block.Blockhash)]; exists {
		return NoLink, fmt.Errorf("hash %s: %w", block.Blockhash, ErrBlockExists)
	}

	return t.add(parent, block), nil
}

// TryFindBlock searches the subtree under root for the block with the
// specified hash and index. The search never goes above the root: an index
// lower than the root index fails with ErrWrongIndex.
func (t *Tree) TryFindBlock(root Link, hash database.Blockhash, index uint64) (Link, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.valid(root) {
		return NoLink, fmt.Errorf("root link %d: %w", root, ErrBlockNotFound)
	}
	rb := t.nodes[root].block

	switch {
	case index == rb.Index:
		if rb.Blockhash.Equal(hash) {
			return root, nil
		}
		return NoLink, ErrBlockNotFound

	case index < rb.Index:
		return NoLink, fmt.Errorf("got %d, root %d: %w", index, rb.Index, ErrWrongIndex)
	}

	l, exists := t.byHash[string(hash)]
	if !exists || t.nodes[l].block.Index != index {
		return NoLink, ErrBlockNotFound
	}

	// The block exists, make sure the root is one of its ancestors.
	for a := t.nodes[l].parent; a != NoLink; a = t.nodes[a].parent {
		if a == root {
			return l, nil
		}
		if t.nodes[a].block.Index <= rb.Index {
			break
		}
	}

	return NoLink, ErrBlockNotFound
}

// =============================================================================

// Balance sums the deltas of the account along the path from the genesis
// block to the link. Unknown accounts have a Pos(0) balance.
func (t *Tree) Balance(l Link, pk signature.PublicKey) database.BalanceDelta {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var bal database.BalanceDelta
	if !t.valid(l) {
		return bal
	}

	for ; l != NoLink; l = t.nodes[l].parent {
		if d, exists := t.nodes[l].deltas[pk]; exists {
			bal = bal.Add(d)
		}
	}

	return bal
}

// Balances sums the deltas of every account in a single walk.
func (t *Tree) Balances(l Link, pks []signature.PublicKey) map[signature.PublicKey]database.BalanceDelta {
	t.mu.RLock()
	defer t.mu.RUnlock()

	bals := make(map[signature.PublicKey]database.BalanceDelta, len(pks))
	for _, pk := range pks {
		bals[pk] = database.Pos(0)
	}

	if !t.valid(l) {
		return bals
	}

	for ; l != NoLink; l = t.nodes[l].parent {
		deltas := t.nodes[l].deltas
		for pk, bal := range bals {
			if d, exists := deltas[pk]; exists {
				bals[pk] = bal.Add(d)
			}
		}
	}

	return bals
}

// Path returns the blocks from the genesis block to the link.
func (t *Tree) Path(l Link) []database.Block {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.valid(l) {
		return nil
	}

	var blocks []database.Block
	for ; l != NoLink; l = t.nodes[l].parent {
		blocks = append(blocks, t.nodes[l].block)
	}

	slices.Reverse(blocks)

	return blocks
}
