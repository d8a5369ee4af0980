package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"github.com/smpl-xyz/go-smpl/hostlang"
	"github.com/smpl-xyz/go-smpl/model"
	"github.com/smpl-xyz/go-smpl/smpl"
)

func check(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	methodName := fs.String("method", "", "Check only the named method")
	verbose := fs.Bool("verbose", false, "Log patch diagnostics to stderr")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: smplc check <patch.smpl> <target> [options]

Compile a semantic patch and evaluate it against the methods of a
target class. Matching methods are printed with their satisfying
states and metavariable bindings.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Check every method of the target
  smplc check patch.smpl Target.java

  # Check a single method
  smplc check patch.smpl Target.java --method install
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

	if len(files) < 2 {
		fs.Usage()
		return fmt.Errorf("patch and target files required")
	}

	patchSource, err := os.ReadFile(files[0])
	if err != nil {
		return fmt.Errorf("read patch: %w", err)
	}
	targetSource, err := os.ReadFile(files[1])
	if err != nil {
		return fmt.Errorf("read target: %w", err)
	}

	log := zerolog.Nop()
	if *verbose {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	rule, err := smpl.ParseWithLogger(string(patchSource), log)
	if err != nil {
		return fmt.Errorf("compile patch: %w", err)
	}

	class, err := hostlang.Parse(string(targetSource))
	if err != nil {
		return fmt.Errorf("parse target: %w", err)
	}

	results := make(map[string]model.ResultSet)
	if *methodName != "" {
		method := findMethod(class, *methodName)
		if method == nil {
			return fmt.Errorf("method %q not found in %s", *methodName, files[1])
		}
		rs, err := smpl.CheckMethod(rule, method)
		if err != nil {
			return err
		}
		if len(rs) > 0 {
			results[method.Name] = rs
		}
	} else {
		results, err = smpl.CheckClass(rule, class)
		if err != nil {
			return err
		}
	}

	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rs := results[name]
		fmt.Printf("method %s: %d matching state(s)\n", name, len(rs.States()))
		for _, r := range rs {
			fmt.Printf("  %s\n", r)
		}
	}
	return nil
}

func findMethod(class *hostlang.Class, name string) *hostlang.Method {
	for _, m := range class.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}
