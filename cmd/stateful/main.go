package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/stratastream/stateful/config"

	"github.com/jessevdk/go-flags"
)

var (
	// CLIVersionHash is the git commit the binary was built from.
	CLIVersionHash = ""
	CLIVersion     = "v0.1.0+dev"
)

// Subcommand is the signature of a sub command that can be registered.
type Subcommand func(context.Context, *flags.Parser) error

// Register registers one or more subcommands.
func Register(ctx context.Context, parser *flags.Parser, cmds ...Subcommand) error {
	for _, fn := range cmds {
		if err := fn(ctx, parser); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	setCommitHash()
	if err := Main(context.Background()); err != nil {
		os.Exit(-1)
	}
}

func Main(ctx context.Context) error {
	parser := flags.NewParser(&config.Empty{}, flags.Default)

	if err := Register(ctx, parser,
		Init,
		Controller,
		WorkerGroup,
		CheckpointManager,
		Version,
	); err != nil {
		fmt.Printf("%+v\n", err)
		return err
	}

	if _, err := parser.Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
		}
		return err
	}
	return nil
}

func setCommitHash() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	modified := false
	for _, v := range info.Settings {
		if v.Key == "vcs.revision" {
			CLIVersionHash = v.Value
		}
		if v.Key == "vcs.modified" && v.Value == "true" {
			modified = true
		}
	}
	if modified {
		CLIVersionHash += "-modified"
	}
}
