// Command forwarderctl runs the forwarder locally and bootstraps the development tunnel.
package main

import (
	"os"

	"github.com/voyage-finance/voyage-llm-forwarder/cmd/forwarderctl/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
