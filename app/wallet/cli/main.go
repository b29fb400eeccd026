package main

import "github.com/datben/gulf-stream/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
