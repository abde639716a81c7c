package cli

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/virti1331/cc-statement-parser/internal/models"
	"github.com/virti1331/cc-statement-parser/internal/writer"
)

type parseOptions struct {
	format string
	output string
	header bool
}

func newParseCommand(root *RootOptions) *cobra.Command {
	opts := &parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a statement and print the extracted record",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "json" && opts.format != "csv" {
				return WrapExitError(ExitFailure, "invalid flag",
					errors.Errorf("format %q: must be json or csv", opts.format))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "output format (json|csv)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the record to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.header, "header", true, "include statement metadata rows in CSV output")

	return cmd
}

func runParse(cmd *cobra.Command, root *RootOptions, opts *parseOptions, path string) error {
	s, err := root.open()
	if err != nil {
		return err
	}
	defer s.close()

	st, err := s.pipe.ParseFile(path, s.log)
	if err != nil {
		return documentError(path, err)
	}
	reportMissing(cmd.ErrOrStderr(), st)

	if opts.output == "" {
		return writeRecord(cmd, opts, st)
	}

	if err := writeRecordFile(opts, st); err != nil {
		return WrapExitError(ExitFailure, "cannot write "+opts.output, err)
	}
	successColor.Fprintf(cmd.ErrOrStderr(), "%s statement written to %s (%d transactions)\n",
		st.Issuer, filepath.Clean(opts.output), len(st.Transactions))
	return nil
}

func writeRecord(cmd *cobra.Command, opts *parseOptions, st *models.Statement) error {
	var err error
	switch opts.format {
	case "csv":
		err = (&writer.CSVWriter{IncludeHeader: opts.header}).Write(cmd.OutOrStdout(), st)
	default:
		err = (&writer.JSONWriter{Indent: "  "}).Write(cmd.OutOrStdout(), st)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "cannot write record", err)
	}
	return nil
}

func writeRecordFile(opts *parseOptions, st *models.Statement) error {
	if opts.format == "csv" {
		return (&writer.CSVWriter{IncludeHeader: opts.header}).WriteToFile(opts.output, st)
	}
	return (&writer.JSONWriter{Indent: "  "}).WriteToFile(opts.output, st)
}
