// This program performs administrative tasks against a node's transaction
// history while the node is stopped.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/datben/gulf-stream/app/tooling/admin/commands"
	"github.com/datben/gulf-stream/foundation/blockchain/storage/disk"
	"github.com/datben/gulf-stream/foundation/logger"
	"github.com/datben/gulf-stream/foundation/nameservice"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	if len(os.Args) < 2 {
		return errors.New("usage: admin bals|trans|reset [arg]")
	}

	log.Infow("startup", "version", build, "command", os.Args[1])

	strg, err := disk.New("zblock/history.db")
	if err != nil {
		return err
	}
	defer strg.Close()

	ns, err := nameservice.New("zblock/accounts/")
	if err != nil {
		return err
	}

	return processCommands(os.Args, commands.Config{Storage: strg, NS: ns, Out: os.Stdout})
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args []string, cfg commands.Config) error {
	switch args[1] {
	case "bals":
		if err := commands.Balances(args, cfg); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}
	case "trans":
		if err := commands.Transactions(args, cfg); err != nil {
			return fmt.Errorf("getting transactions: %w", err)
		}
	case "reset":
		if err := cfg.Storage.Reset(); err != nil {
			return fmt.Errorf("resetting history: %w", err)
		}
	default:
		return fmt.Errorf("unknown command %q", args[1])
	}

	return nil
}
