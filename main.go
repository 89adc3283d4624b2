// Ferrite - command-line client for the Ferrite firmware analysis platform.
//
// Authenticate with 'ferrite login' (or an API key), upload firmware
// images, and track analysis from the shell. Every command maps its
// failure onto a stable exit code so scripts can branch on $?.
package main

import (
	"os"

	"github.com/ferrite-sec/ferrite-cli/internal/cli"
)

func main() {
	err := cli.Execute()
	os.Exit(cli.ExitCode(err))
}
