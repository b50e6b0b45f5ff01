// Command acsdump is an object-file inspector for the ACS bytecode
// family (ACS0, ACSE, ACSe, and their disguised "indirect" variants):
// it dumps chunk contents, script/string directories, and disassembled
// script and function bodies as line-oriented plain text.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/doomtools/acsdump/acs"
	"github.com/doomtools/acsdump/dump"
)

var (
	chunkFlag        string
	listFlag         bool
	modeFlag         string
	maxReadBytesFlag int
	maxStepsFlag     int
	verboseFlag      bool
)

func printDiag(d acs.Diagnostic) {
	if d.Func != "" {
		fmt.Fprintf(os.Stderr, "diag [%s] %s @%d: %s\n", d.Kind, d.Func, d.Offset, d.Msg)
	} else {
		fmt.Fprintf(os.Stderr, "diag [%s] @%d: %s\n", d.Kind, d.Offset, d.Msg)
	}
}

// errUsage marks a CLI usage error (exit code 2), distinct from the
// sentinel taxonomy of the error-handling design (exit code 1).
var errUsage = errors.New("usage error")

func parseMode(name string) (acs.Mode, error) {
	switch name {
	case "strict":
		return acs.Strict, nil
	case "besteffort":
		return acs.BestEffort, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (use strict or besteffort)", name)
	}
}

// exitCode maps a terminal error to the process exit status: 2 for a
// usage error the CLI itself detects, 1 for every sentinel from the
// error-handling design.
func exitCode(err error) int {
	if errors.Is(err, errUsage) {
		return 2
	}
	return 1
}

// applyVerbosity composes --verbose with glog's own flag registration on
// flag.CommandLine, raising glog's V level so the dump package's
// glog.V(1)/glog.V(2) trace calls actually surface on stderr.
func applyVerbosity() {
	if !verboseFlag {
		return
	}
	_ = flag.Set("logtostderr", "true")
	_ = flag.Set("v", "2")
}

func run(cmd *cobra.Command, args []string) error {
	applyVerbosity()
	if chunkFlag != "" && listFlag {
		return fmt.Errorf("%w: --chunk and --list are mutually exclusive", errUsage)
	}
	mode, err := parseMode(modeFlag)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	opt := acs.Options{Mode: mode, MaxReadBytes: maxReadBytesFlag, MaxSteps: maxStepsFlag}
	f, err := acs.Load(args[0], opt)
	if err != nil {
		return err
	}

	var res acs.Result[string]
	switch {
	case chunkFlag != "":
		res, err = dump.ViewChunk(f, chunkFlag)
	case listFlag:
		res, err = dump.ListChunks(f)
	default:
		res, err = dump.ShowObject(f)
	}
	for _, d := range res.Diags {
		printDiag(d)
	}
	if err != nil {
		return err
	}

	fmt.Print(res.Value)
	return nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "acsdump [flags] <object-file>",
		Short:         "Inspect and disassemble ACS object files",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: expected exactly one object-file argument", errUsage)
			}
			return nil
		},
		RunE: run,
	}
	cmd.Flags().StringVarP(&chunkFlag, "chunk", "c", "", "view selected chunk (ACSE/ACSe only); 4-char name, case-insensitive")
	cmd.Flags().BoolVarP(&listFlag, "list", "l", false, "list chunks (ACSE/ACSe only)")
	cmd.Flags().StringVar(&modeFlag, "mode", "strict", "decode/disassembly error mode: strict, besteffort")
	cmd.Flags().IntVar(&maxReadBytesFlag, "max-read-bytes", 0, "cap on a single chunk/string read (0 = default)")
	cmd.Flags().IntVar(&maxStepsFlag, "max-steps", 0, "cap on chunk-walk/disassembly loop iterations (0 = default)")
	cmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "emit glog trace-level diagnostics to stderr")
	return cmd
}

func main() {
	defer glog.Flush()

	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, cmd.UsageString())
		}
		if verboseFlag {
			glog.Errorf("acsdump: %v", err)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
