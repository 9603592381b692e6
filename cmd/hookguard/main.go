// hookguard is the lifecycle hook guard for AI coding agents.
package main

import (
	"os"

	"github.com/maklarsystem/hookguard/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
