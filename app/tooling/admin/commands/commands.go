// Package commands contains the functionality for the admin tool.
package commands

import (
	"io"

	"github.com/datben/gulf-stream/foundation/blockchain/storage"
	"github.com/datben/gulf-stream/foundation/nameservice"
)

// Config contains the systems the commands need.
type Config struct {
	Storage storage.Storage
	NS      *nameservice.NameService
	Out     io.Writer
}
