// Package cli implements the ccparse command line.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/virti1331/cc-statement-parser/internal/config"
	"github.com/virti1331/cc-statement-parser/internal/diag"
	"github.com/virti1331/cc-statement-parser/internal/parser"
	"github.com/virti1331/cc-statement-parser/internal/pipeline"
)

// Version is reported by --version and the health endpoint.
var Version = "1.0.0"

// RootOptions holds global flags shared by every command.
type RootOptions struct {
	ConfigFile string
	LogFile    string
	Verbose    bool

	// Extract overrides PDF text extraction. Nil uses the PDF extractor.
	Extract pipeline.ExtractFunc
}

// NewRootCommand creates the ccparse command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ccparse",
		Short: "Credit card statement parser",
		Long: `Extracts the card number suffix, billing period, payment due date,
total amount due and transactions from credit card statement PDFs.

Supported issuers: HDFC Bank, ICICI Bank, Axis Bank, Chase, IDFC First Bank.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "diagnostic log file (default parser.log)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "also write diagnostics to stderr")

	cmd.AddCommand(newParseCommand(opts))
	cmd.AddCommand(newDetectCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))

	return cmd
}

// session is the wired runtime for one command invocation.
type session struct {
	cfg   *config.Config
	log   *zap.Logger
	pipe  *pipeline.Pipeline
	close func()
}

func (o *RootOptions) open() (*session, error) {
	cfg, err := config.Load(config.New(), o.ConfigFile)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "invalid configuration", err)
	}
	if o.LogFile != "" {
		cfg.Log.File = o.LogFile
	}
	if o.Verbose {
		cfg.Log.Console = true
	}

	log, closeLog, err := diag.New(diag.Options{
		File:    cfg.Log.File,
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
	})
	if err != nil {
		return nil, WrapExitError(ExitFailure, "cannot open diagnostic log", err)
	}

	rules, err := parser.LoadRules(cfg.Rules.File)
	if err != nil {
		closeLog()
		return nil, WrapExitError(ExitFailure, "cannot load issuer rules", err)
	}

	pipe := pipeline.New(rules)
	if o.Extract != nil {
		pipe.Extract = o.Extract
	}
	return &session{cfg: cfg, log: log, pipe: pipe, close: closeLog}, nil
}
