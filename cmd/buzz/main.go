package main

import "github.com/ogulcanaydogan/ai-buzz-tools/internal/cli"

func main() {
	cli.Execute()
}
