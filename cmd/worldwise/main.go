// Package main is the entry point for the worldwise CLI.
// Its sole responsibility is loading the environment and dispatching to the
// command tree; all behaviour lives under internal/.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/jfenske/worldwise/internal/cli"
)

func main() {
	// A local .env is a convenience for development (demo credentials,
	// alternate service URLs). Missing files are fine.
	_ = godotenv.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
