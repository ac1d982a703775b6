// Command tryinstall installs a Karaf feature, stubbing out the packages its
// bundles import but nothing in the container provides.
package main

import (
	"fmt"
	"os"

	"github.com/Lambeaux/steadfast/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
