package parser

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/virti1331/cc-statement-parser/internal/models"
)

// Parser extracts a statement record for a single issuer.
type Parser interface {
	// Parse takes the text of each page in order and returns the extracted
	// record. Missing fields are reported through the logger and the record's
	// Missing list, never as an error.
	Parse(pages []string, log *zap.Logger) (*models.Statement, error)
	// Issuer returns the issuer identifier this parser handles.
	Issuer() models.Issuer
	// BankName returns the human-readable bank name.
	BankName() string
}

// New returns the parser for issuer backed by the given rule set.
func New(issuer models.Issuer, rs *RuleSet) (Parser, error) {
	if rs == nil {
		rs = DefaultRules()
	}
	rules := rs.Issuer(issuer)
	if rules == nil {
		return nil, errors.Wrapf(ErrUnsupportedIssuer, "no parser for issuer %q", issuer)
	}
	return &ruleParser{rules: rules}, nil
}

// Detect identifies the issuer from the document text. Issuers are tried in
// the fixed priority order and the first keyword hit wins.
func Detect(pages []string, rs *RuleSet, log *zap.Logger) (models.Issuer, error) {
	if rs == nil {
		rs = DefaultRules()
	}
	if log == nil {
		log = zap.NewNop()
	}

	text := cleanText(joinPages(pages))
	for _, rules := range rs.ordered() {
		for _, kw := range rules.Keywords {
			if kw.MatchString(text) {
				log.Info("issuer detected",
					zap.String("issuer", string(rules.Issuer)),
					zap.String("bank", rules.Name))
				return rules.Issuer, nil
			}
		}
	}

	log.Error("unable to detect credit card issuer")
	return "", ErrUnsupportedIssuer
}

type ruleParser struct {
	rules *IssuerRules
}

func (p *ruleParser) Issuer() models.Issuer { return p.rules.Issuer }

func (p *ruleParser) BankName() string { return p.rules.Name }

func (p *ruleParser) Parse(pages []string, log *zap.Logger) (*models.Statement, error) {
	if log == nil {
		log = zap.NewNop()
	}
	text := joinPages(pages)
	if isBlank(text) {
		return nil, ErrEmptyDocument
	}
	return p.rules.Extract(text, log), nil
}
