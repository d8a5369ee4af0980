package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/smpl-xyz/go-smpl/registry"
	"github.com/smpl-xyz/go-smpl/smpl"
)

func compile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	storePath := fs.String("store", "", "Save the compiled rule to a rule database")
	verbose := fs.Bool("verbose", false, "Log patch diagnostics to stderr")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: smplc compile <patch.smpl> [options]

Compile a semantic patch into a rule and print it.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Compile and print the rule
  smplc compile patch.smpl

  # Compile and persist the rule
  smplc compile patch.smpl --store rules.db
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	// Flags may also follow the positional arguments.
	var files []string
	for fs.NArg() > 0 {
		files = append(files, fs.Arg(0))
		if err := fs.Parse(fs.Args()[1:]); err != nil {
			return err
		}
	}

	if len(files) < 1 {
		fs.Usage()
		return fmt.Errorf("patch file required")
	}

	source, err := os.ReadFile(files[0])
	if err != nil {
		return fmt.Errorf("read patch: %w", err)
	}

	log := zerolog.Nop()
	if *verbose {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	rule, err := smpl.ParseWithLogger(string(source), log)
	if err != nil {
		return fmt.Errorf("compile patch: %w", err)
	}

	fmt.Print(rule)

	if *storePath != "" {
		store, err := registry.Open(*storePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Put(rule); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Rule %s stored in %s\n", rule.ID, *storePath)
	}

	return nil
}
