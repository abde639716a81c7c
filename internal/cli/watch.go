package cli

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/virti1331/cc-statement-parser/internal/watcher"
	"github.com/virti1331/cc-statement-parser/internal/writer"
)

type watchOptions struct {
	out      string
	debounce time.Duration
}

func newWatchCommand(root *RootOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Parse every statement PDF created or changed in a directory",
		Long: `Watches a directory and parses each .pdf file when it is created or
rewritten. The record is written as <name>.json next to the PDF, or into
--out when set. Files whose content has not changed are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.open()
			if err != nil {
				return err
			}
			defer s.close()

			if opts.out == "" {
				opts.out = s.cfg.Watch.Out
			}
			if !cmd.Flags().Changed("debounce") {
				opts.debounce = s.cfg.Watch.Debounce
			}
			if opts.out != "" {
				if err := os.MkdirAll(opts.out, 0o755); err != nil {
					return WrapExitError(ExitFailure, "cannot create output directory", err)
				}
			}

			w, err := watcher.New(args[0], opts.debounce, func(path string) {
				s.processWatched(cmd, opts.out, path)
			}, s.log)
			if err != nil {
				return WrapExitError(ExitDocument, "cannot watch "+args[0], err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			infoColor.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", args[0])
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "directory for JSON records (default next to each PDF)")
	cmd.Flags().DurationVarP(&opts.debounce, "debounce", "d", time.Second, "wait this long after the last change before parsing")
	return cmd
}

// processWatched parses one PDF and writes its record. Failures are reported
// and do not stop the watcher.
func (s *session) processWatched(cmd *cobra.Command, outDir, path string) {
	stderr := cmd.ErrOrStderr()
	infoColor.Fprintf(stderr, "Parsing %s\n", filepath.Base(path))

	st, err := s.pipe.ParseFile(path, s.log)
	if err != nil {
		s.log.Error("watched file failed", zap.String("path", path), zap.Error(err))
		PrintError(stderr, documentError(path, err))
		return
	}
	reportMissing(stderr, st)

	dst := recordPath(outDir, path)
	if err := (&writer.JSONWriter{Indent: "  "}).WriteToFile(dst, st); err != nil {
		PrintError(stderr, err)
		return
	}
	successColor.Fprintf(stderr, "%s -> %s\n", filepath.Base(path), dst)
}

func recordPath(outDir, pdfPath string) string {
	name := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath)) + ".json"
	if outDir == "" {
		return filepath.Join(filepath.Dir(pdfPath), name)
	}
	return filepath.Join(outDir, name)
}
