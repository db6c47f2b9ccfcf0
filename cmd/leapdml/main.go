// Package main provides the leapdml command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapdml/internal/cli"

	// Register source types.
	_ "github.com/leapstack-labs/leapdml/internal/source/duckdb"
	_ "github.com/leapstack-labs/leapdml/internal/source/lakehouse"
	_ "github.com/leapstack-labs/leapdml/internal/source/memory"
	_ "github.com/leapstack-labs/leapdml/internal/source/postgres"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
