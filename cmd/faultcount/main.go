// faultcount counts faulty stage sequences in device logs.
//
// Each worker scans one device log; the per-device counts are printed once
// every worker has finished. Results can additionally be recorded to SQLite,
// published over MQTT, written to InfluxDB and served over HTTP, each
// enabled in the YAML configuration.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Brad-K99/EventCounterForRC/internal/dispatch"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// configEnv names the config file when --config is not given.
const configEnv = "FAULTCOUNT_CONFIG"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// options holds the parsed command-line flags.
type options struct {
	configPath string
	serve      bool
}

const usageTemplate = `Usage:
  {{.CommandPath}} [--config FILE] [--serve] <threads> <device-id> <log-file> [<device-id> <log-file> ...]

Further device ID / log file pairs may follow the first; the order shown must be kept.
The number of threads must be at least the number of pairs. With more threads than
pairs, some pairs are scanned by more than one thread.

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
`

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faultcount",
		Short: "Count faulty stage sequences in device logs",
		Long: `faultcount scans device logs concurrently and reports, per device, how many
times the faulty sequence (stage 3 for at least five minutes, then stage 2,
optionally back and forth between 2 and 3, then stage 0) occurs.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, cmd.OutOrStdout())
		},
	}
	cmd.SetUsageTemplate(usageTemplate)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", dispatch.ErrUsage, err)
	})

	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML configuration file (default $"+configEnv+", else built-in defaults)")
	cmd.Flags().BoolVar(&opts.serve, "serve", false, "keep the HTTP API running after the report until interrupted")
	// Flags come first; everything from the thread count on is positional,
	// so device IDs such as "-H" are passed through untouched.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &options{}
	cmd := newRootCmd(opts)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if wantsHelp(args) {
		args = []string{"--help"}
	}
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	if errors.Is(err, dispatch.ErrUsage) {
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, cmd.UsageString())
	}
	return 1
}

// wantsHelp reports whether the first argument asks for help. -h, -help
// and --help are accepted in any letter case. Later arguments are device IDs
// and log paths and are never treated as a help request.
func wantsHelp(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch strings.ToLower(args[0]) {
	case "-h", "-help", "--help":
		return true
	}
	return false
}
