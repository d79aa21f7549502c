// Package main is the entry point for the enrich CLI binary.
package main

import (
	"os"

	"github.com/Deji-py/insta-enricher/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
