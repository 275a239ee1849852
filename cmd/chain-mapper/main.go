// Package main provides the CLI entrypoint for chain-mapper.
//
// chain-mapper checks path-chain mapping specs without running them:
//   - check parses every chain and prints the alignment class of each rule
//   - lint loads the Go packages holding the spec types and checks fields,
//     notation and accessors against them
//   - paths lists the chains reaching every field of a type
package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"chain-mapper/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := cli.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if cfg.ShowVersion {
		fmt.Println(version)
		return 0
	}

	logger := zap.NewNop()
	if cfg.Verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	}
	defer func() { _ = logger.Sync() }()

	if err := cli.NewRunner(os.Stdout, logger).Run(cfg); err != nil {
		if !errors.Is(err, cli.ErrFindings) {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}

	return 0
}
