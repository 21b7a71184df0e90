// Package main is the leapgraph command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapgraph/internal/cli"
	_ "github.com/leapstack-labs/leapgraph/pkg/extensions/core"       // register core
	_ "github.com/leapstack-labs/leapgraph/pkg/extensions/relational" // register relational
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
