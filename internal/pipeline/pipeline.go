// Package pipeline runs one document through text extraction, issuer
// detection and field extraction.
package pipeline

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/virti1331/cc-statement-parser/internal/extractor"
	"github.com/virti1331/cc-statement-parser/internal/models"
	"github.com/virti1331/cc-statement-parser/internal/parser"
)

var (
	// ErrFileNotFound is returned when the input path does not exist.
	ErrFileNotFound = errors.New("file not found")

	// Re-exported so callers only need this package to classify failures.
	ErrEmptyDocument     = parser.ErrEmptyDocument
	ErrUnsupportedIssuer = parser.ErrUnsupportedIssuer
)

// ExtractFunc returns the text of each page of the document at path.
type ExtractFunc func(path string) ([]string, error)

// Pipeline is stateless apart from its read-only collaborators and can be
// shared by concurrent callers.
type Pipeline struct {
	Extract ExtractFunc
	Rules   *parser.RuleSet
}

// New returns a pipeline using the PDF extractor and the given rule set.
func New(rules *parser.RuleSet) *Pipeline {
	return &Pipeline{
		Extract: extractor.ExtractText,
		Rules:   rules,
	}
}

// IsFatal reports whether err is one of the document-level failures that
// callers surface as a user error rather than an internal one.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFileNotFound) ||
		errors.Is(err, ErrEmptyDocument) ||
		errors.Is(err, ErrUnsupportedIssuer)
}

// ParseFile extracts the text of the document at path and parses it.
func (p *Pipeline) ParseFile(path string, log *zap.Logger) (*models.Statement, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pages, err := p.readPages(path, log)
	if err != nil {
		return nil, err
	}
	return p.ParseText(pages, log)
}

// DetectFile extracts the document at path and reports its issuer without
// extracting any fields.
func (p *Pipeline) DetectFile(path string, log *zap.Logger) (models.Issuer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pages, err := p.readPages(path, log)
	if err != nil {
		return "", err
	}
	if textLength(pages) == 0 {
		log.Error("no text extracted from document")
		return "", ErrEmptyDocument
	}
	return parser.Detect(pages, p.Rules, log)
}

func (p *Pipeline) readPages(path string, log *zap.Logger) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			log.Error("input file not found", zap.String("path", path))
			return nil, errors.Wrapf(ErrFileNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	log.Info("processing document", zap.String("path", path))
	pages, err := p.Extract(path)
	if err != nil {
		return nil, errors.Wrap(err, "text extraction")
	}
	return pages, nil
}

// ParseText parses already extracted page texts.
func (p *Pipeline) ParseText(pages []string, log *zap.Logger) (*models.Statement, error) {
	if log == nil {
		log = zap.NewNop()
	}

	chars := textLength(pages)
	if chars == 0 {
		log.Error("no text extracted from document")
		return nil, ErrEmptyDocument
	}
	log.Info("text extracted", zap.Int("pages", len(pages)), zap.Int("chars", chars))

	issuer, err := parser.Detect(pages, p.Rules, log)
	if err != nil {
		return nil, err
	}

	prs, err := parser.New(issuer, p.Rules)
	if err != nil {
		return nil, err
	}
	log.Info("parsing statement", zap.String("parser", prs.BankName()))

	st, err := prs.Parse(pages, log)
	if err != nil {
		return nil, err
	}
	log.Info("parsing completed",
		zap.String("issuer", string(st.Issuer)),
		zap.Int("missing_fields", len(st.Missing)),
		zap.Int("transactions", len(st.Transactions)))
	return st, nil
}

func textLength(pages []string) int {
	n := 0
	for _, page := range pages {
		n += len(strings.TrimSpace(page))
	}
	return n
}
