// Package chain tracks the fork tips of the block tree and the highest
// block ever inserted.
package chain

import (
	"errors"
	"fmt"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
	"github.com/datben/gulf-stream/foundation/blockchain/tree"
)

// MaxTips is the number of recently extended fork tips kept.
const MaxTips = 10

// Set of error variables for chain insertion.
var (
	ErrBlockIsNotValid         = errors.New("block is not valid")
	ErrDidNotFindPreviousBlock = errors.New("did not find previous block")
)

// Blockchain holds the fork tree, the most recently extended tips with the
// most recent first, and the highest block seen. It is not safe for
// concurrent mutation, the caller serializes inserts.
type Blockchain struct {
	difficulty uint
	tree       *tree.Tree
	tips       []tree.Link
	latest     tree.Link
}

// New constructs a chain holding only the genesis block.
func New(difficulty uint) *Blockchain {
	tr := tree.New(database.Genesis())

	return &Blockchain{
		difficulty: difficulty,
		tree:       tr,
		tips:       []tree.Link{tr.Genesis()},
		latest:     tr.Genesis(),
	}
}

// Difficulty returns the proof of work difficulty blocks must satisfy.
func (bc *Blockchain) Difficulty() uint {
	return bc.difficulty
}

// Tree returns the underlying fork tree.
func (bc *Blockchain) Tree() *tree.Tree {
	return bc.tree
}

// Validate checks the shape of a block before any tree mutation: the
// recorded hash must match the content and satisfy the difficulty.
func (bc *Blockchain) Validate(block database.Block) error {
	if !block.HashIsIntact() {
		return fmt.Errorf("blk[%d]: hash does not match content: %w", block.Index, ErrBlockIsNotValid)
	}

	if block.Index > 0 && !block.Blockhash.IsValid(bc.difficulty) {
		return fmt.Errorf("blk[%d]: hash %s does not solve difficulty %d: %w", block.Index, block.Blockhash, bc.difficulty, ErrBlockIsNotValid)
	}

	return nil
}

// TryInsert adds the block to the tree. The tracked tips are tried first,
// most recent first, then the parent is searched from the genesis block.
// The new link is promoted to the front of the tips.
func (bc *Blockchain) TryInsert(block database.Block) (tree.Link, error) {
	if err := bc.Validate(block); err != nil {
		return tree.NoLink, err
	}

	for _, tip := range bc.tips {
		l, err := bc.tree.TryInsert(tip, block)
		if err == nil {
			bc.promote(tip, l)
			return l, nil
		}
		if errors.Is(err, tree.ErrBlockExists) {
			return tree.NoLink, err
		}
	}

	if block.Index == 0 {
		return tree.NoLink, fmt.Errorf("blk[0]: %w", ErrDidNotFindPreviousBlock)
	}

	parent, err := bc.tree.TryFindBlock(bc.tree.Genesis(), block.PreviousBlockhash, block.Index-1)
	if err != nil {
		return tree.NoLink, fmt.Errorf("blk[%d]: prev[%s]: %w", block.Index, block.PreviousBlockhash, ErrDidNotFindPreviousBlock)
	}

	l, err := bc.tree.TryInsert(parent, block)
	if err != nil {
		return tree.NoLink, err
	}
	bc.promote(parent, l)

	return l, nil
}

// promote moves the new link to the front of the tips, dropping the parent
// it extended when the parent is tracked. The oldest tip is evicted past
// MaxTips.
func (bc *Blockchain) promote(parent tree.Link, l tree.Link) {
	tips := make([]tree.Link, 0, MaxTips+1)
	tips = append(tips, l)
	for _, tip := range bc.tips {
		if tip != parent {
			tips = append(tips, tip)
		}
	}

	if len(tips) > MaxTips {
		tips = tips[:MaxTips]
	}
	bc.tips = tips

	if bc.tree.Block(l).Index > bc.tree.Block(bc.latest).Index {
		bc.latest = l
	}
}

// =============================================================================

// Latest returns the highest index link ever inserted. It may have been
// evicted from the tips.
func (bc *Blockchain) Latest() tree.Link {
	return bc.latest
}

// LatestBlock returns the block of the latest link.
func (bc *Blockchain) LatestBlock() database.Block {
	return bc.tree.Block(bc.latest)
}

// Tips returns a copy of the tracked tips, most recently extended first.
func (bc *Blockchain) Tips() []tree.Link {
	return append([]tree.Link(nil), bc.tips...)
}

// Find searches the whole tree for the block.
func (bc *Blockchain) Find(hash database.Blockhash, index uint64) (database.Block, error) {
	l, err := bc.tree.TryFindBlock(bc.tree.Genesis(), hash, index)
	if err != nil {
		return database.Block{}, err
	}
	return bc.tree.Block(l), nil
}

// Balance returns the balance of the account at the latest block.
func (bc *Blockchain) Balance(pk signature.PublicKey) database.BalanceDelta {
	return bc.tree.Balance(bc.latest, pk)
}

// Balances returns the balances of the accounts at the specified link.
func (bc *Blockchain) Balances(l tree.Link, pks []signature.PublicKey) map[signature.PublicKey]database.BalanceDelta {
	return bc.tree.Balances(l, pks)
}
