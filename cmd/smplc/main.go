package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "compile":
		if err := compile(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "check":
		if err := check(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("smplc version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`smplc - semantic patch compiler and checker

Usage:
  smplc <command> [options]

Commands:
  compile    Compile a semantic patch into a rule
  check      Compile a patch and check it against a target source file
  help       Show this help message
  version    Show version information

Examples:
  # Compile a patch and print the rule
  smplc compile patch.smpl

  # Compile and store the rule
  smplc compile patch.smpl --store rules.db

  # Check a patch against a class
  smplc check patch.smpl Target.java

For command-specific help, run:
  smplc <command> --help`)
}
