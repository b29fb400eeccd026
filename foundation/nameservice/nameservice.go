// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for the known accounts.
package nameservice

import (
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"strings"

	"github.com/datben/gulf-stream/foundation/blockchain/signature"
)

// keyExt is the extension of the account key files.
const keyExt = ".ed25519"

// NameService maintains a map of accounts for name lookup.
type NameService struct {
	accounts map[signature.PublicKey]string
}

// New constructs a name service with the accounts of the key files found
// under root.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[signature.PublicKey]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != keyExt {
			return nil
		}

		pk, err := signature.LoadKey(fileName)
		if err != nil {
			return fmt.Errorf("%s: %w", fileName, err)
		}

		ns.accounts[pk.Public()] = strings.TrimSuffix(filepath.Base(fileName), keyExt)

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified account or its hex form when
// the account is unknown.
func (ns *NameService) Lookup(pk signature.PublicKey) string {
	name, exists := ns.accounts[pk]
	if !exists {
		return pk.String()
	}
	return name
}

// Copy returns a copy of the map of names and accounts.
func (ns *NameService) Copy() map[signature.PublicKey]string {
	return maps.Clone(ns.accounts)
}
