// Command phonodist computes feature-based phonetic distances, distance
// matrices and alignments from the command line.
//
// Usage:
//
//	phonodist <command> [flags] [args]
//
// Commands:
//
//	normalize  print the canonical form of IPA strings
//	lookup     print feature rows of phonemes
//	distance   distance between two phonemes
//	matrix     distance matrix of phonemes, printed or saved to storage
//	align      align two space-separated segment sequences
//	cognates   cognate threshold statistics of a cognate table
//	methods    list distance methods
//
// Settings come from the built-in defaults, the -config YAML file, then
// PHONODIST_* environment variables, then flags.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: phonodist <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "run 'phonodist <command> -h' for the flags of a command")
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		usage(stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "phonodist: unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	a, exec, err := parse(ctx, args[0], cmd, args[1:], stdout, stderr)
	if err != nil {
		if err == errHelp {
			return 0
		}
		fmt.Fprintf(stderr, "phonodist %s: %v\n", args[0], err)
		return 2
	}

	err = exec(ctx, a, a.flags.Args())
	if ferr := a.flush(); err == nil {
		err = ferr
	}
	if err != nil {
		fmt.Fprintf(stderr, "phonodist %s: %v\n", args[0], err)
		return 1
	}
	return 0
}
