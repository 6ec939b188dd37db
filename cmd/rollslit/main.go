// RollSlit - roll slitting and inventory ledger
//
// Plans slitting jobs that cut mother rolls into child rolls and keeps the
// GRN and stock lot stores consistent on commit and reversal.
//
// Build:
//   go build -o rollslit ./cmd/rollslit
//
// Serve the HTTP API:
//   rollslit serve --addr :8080

package main

import (
	"fmt"
	"os"

	"github.com/piwi3910/RollSlit/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
