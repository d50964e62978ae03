package main

import (
	"fmt"
	"os"

	"github.com/ogulcanaydogan/ai-buzz-tools/internal/cli"
	"github.com/ogulcanaydogan/ai-buzz-tools/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("BUZZ_CONFIG"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return cli.Serve(cfg)
}
