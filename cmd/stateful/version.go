package main

import (
	"context"
	"fmt"

	"github.com/jessevdk/go-flags"
)

type VersionCmd struct{}

func (VersionCmd) Execute(_ []string) error {
	fmt.Printf("stateful version %s (%s)\n", CLIVersion, CLIVersionHash)
	return nil
}

func Version(_ context.Context, parser *flags.Parser) error {
	_, err := parser.AddCommand("version", "Show version info", "Show version info", &VersionCmd{})
	return err
}
