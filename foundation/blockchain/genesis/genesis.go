// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time `json:"date"`
	Difficulty    uint16    `json:"difficulty"`      // Number of leading hash bytes among which a zero byte must appear.
	TransPerBlock uint16    `json:"trans_per_block"` // The maximum number of transactions that can be in a block, 0 for no limit.
	BlockInterval uint16    `json:"block_interval"`  // Seconds between two block building rounds.
}

// Default returns the chain parameters used when no genesis file is given.
func Default() Genesis {
	return Genesis{
		Date:          time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
		Difficulty:    1,
		BlockInterval: 5,
	}
}

// Interval returns the block interval as a duration.
func (g Genesis) Interval() time.Duration {
	if g.BlockInterval == 0 {
		return 5 * time.Second
	}
	return time.Duration(g.BlockInterval) * time.Second
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
