package parser

import (
	_ "embed"
	"os"
	"regexp"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/virti1331/cc-statement-parser/internal/models"
)

//go:embed rules.yaml
var embeddedRules []byte

// Regex flags applied when compiling rule expressions.
const (
	fieldFlags       = "(?is)"
	keywordFlags     = "(?i)"
	transactionFlags = "(?i)"
)

// Pattern is one compiled field pattern and the capture group holding the value.
type Pattern struct {
	Expr  *regexp.Regexp
	Group int
}

// FieldRule is the ordered list of patterns tried for a single field.
type FieldRule struct {
	Currency string
	Patterns []Pattern
}

// TransactionRule describes the shape of a transaction row.
type TransactionRule struct {
	Expr        *regexp.Regexp
	Date        int
	Description int
	Amount      int
	Credit      int // 0 when the layout has no Cr/Dr marker
}

// IssuerRules holds everything needed to detect and parse one issuer.
type IssuerRules struct {
	Issuer       models.Issuer
	Name         string
	Keywords     []*regexp.Regexp
	Fields       map[models.Field]*FieldRule
	Transactions *TransactionRule
}

// RuleSet is the compiled rule table. It is read-only after loading and safe
// for concurrent use.
type RuleSet struct {
	byIssuer map[models.Issuer]*IssuerRules
}

// Issuer returns the rules for issuer, or nil when it is not defined.
func (rs *RuleSet) Issuer(issuer models.Issuer) *IssuerRules {
	return rs.byIssuer[issuer]
}

// ordered returns the issuers' rules in detection priority order.
func (rs *RuleSet) ordered() []*IssuerRules {
	out := make([]*IssuerRules, 0, len(models.Issuers))
	for _, id := range models.Issuers {
		if r, ok := rs.byIssuer[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

type ruleFile struct {
	Issuers []issuerSpec `yaml:"issuers"`
}

type issuerSpec struct {
	ID           string               `yaml:"id"`
	Name         string               `yaml:"name"`
	Keywords     []string             `yaml:"keywords"`
	Fields       map[string]fieldSpec `yaml:"fields"`
	Transactions *transactionSpec     `yaml:"transactions"`
}

type fieldSpec struct {
	Currency string        `yaml:"currency"`
	Patterns []patternSpec `yaml:"patterns"`
}

type patternSpec struct {
	Expr  string `yaml:"expr"`
	Group int    `yaml:"group"`
}

// UnmarshalYAML accepts either a bare expression or an {expr, group} mapping.
func (p *patternSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		p.Expr = node.Value
		return nil
	}
	type plain patternSpec
	return node.Decode((*plain)(p))
}

type transactionSpec struct {
	Expr        string `yaml:"expr"`
	Date        int    `yaml:"date"`
	Description int    `yaml:"description"`
	Amount      int    `yaml:"amount"`
	Credit      int    `yaml:"credit"`
}

var (
	defaultOnce  sync.Once
	defaultRules *RuleSet
)

// DefaultRules returns the rule table compiled into the binary.
func DefaultRules() *RuleSet {
	defaultOnce.Do(func() {
		rs, err := ParseRules(embeddedRules)
		if err != nil {
			panic(errors.Wrap(err, "embedded rules"))
		}
		defaultRules = rs
	})
	return defaultRules
}

// LoadRules reads and compiles a rule table from a YAML file. An empty path
// selects the embedded table.
func LoadRules(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read rules file %s", path)
	}
	rs, err := ParseRules(data)
	if err != nil {
		return nil, errors.Wrapf(err, "rules file %s", path)
	}
	return rs, nil
}

// ParseRules compiles a YAML rule table. Every supported issuer must be
// defined exactly once and every expression must compile.
func ParseRules(data []byte) (*RuleSet, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "decode rules")
	}

	rs := &RuleSet{byIssuer: make(map[models.Issuer]*IssuerRules)}
	for _, spec := range file.Issuers {
		rules, err := compileIssuer(spec)
		if err != nil {
			return nil, err
		}
		if _, dup := rs.byIssuer[rules.Issuer]; dup {
			return nil, errors.Errorf("issuer %s defined twice", rules.Issuer)
		}
		rs.byIssuer[rules.Issuer] = rules
	}

	for _, id := range models.Issuers {
		if _, ok := rs.byIssuer[id]; !ok {
			return nil, errors.Errorf("issuer %s has no rules", id)
		}
	}
	return rs, nil
}

func compileIssuer(spec issuerSpec) (*IssuerRules, error) {
	issuer := models.Issuer(spec.ID)
	if !isSupported(issuer) {
		return nil, errors.Errorf("unknown issuer %q", spec.ID)
	}
	if len(spec.Keywords) == 0 {
		return nil, errors.Errorf("issuer %s: no keywords", issuer)
	}

	rules := &IssuerRules{
		Issuer: issuer,
		Name:   spec.Name,
		Fields: make(map[models.Field]*FieldRule),
	}
	if rules.Name == "" {
		rules.Name = spec.ID
	}

	for _, kw := range spec.Keywords {
		re, err := regexp.Compile(keywordFlags + kw)
		if err != nil {
			return nil, errors.Wrapf(err, "issuer %s: keyword %q", issuer, kw)
		}
		rules.Keywords = append(rules.Keywords, re)
	}

	for name, fs := range spec.Fields {
		field := models.Field(name)
		if !isScalarField(field) {
			return nil, errors.Errorf("issuer %s: unknown field %q", issuer, name)
		}
		fr := &FieldRule{Currency: fs.Currency}
		for _, ps := range fs.Patterns {
			re, err := regexp.Compile(fieldFlags + ps.Expr)
			if err != nil {
				return nil, errors.Wrapf(err, "issuer %s: field %s", issuer, name)
			}
			group := ps.Group
			if group == 0 {
				group = 1
			}
			if group > re.NumSubexp() {
				return nil, errors.Errorf("issuer %s: field %s: group %d out of range in %q", issuer, name, group, ps.Expr)
			}
			fr.Patterns = append(fr.Patterns, Pattern{Expr: re, Group: group})
		}
		rules.Fields[field] = fr
	}

	if ts := spec.Transactions; ts != nil {
		re, err := regexp.Compile(transactionFlags + ts.Expr)
		if err != nil {
			return nil, errors.Wrapf(err, "issuer %s: transactions", issuer)
		}
		for _, g := range []int{ts.Date, ts.Description, ts.Amount} {
			if g < 1 || g > re.NumSubexp() {
				return nil, errors.Errorf("issuer %s: transactions: group %d out of range", issuer, g)
			}
		}
		if ts.Credit < 0 || ts.Credit > re.NumSubexp() {
			return nil, errors.Errorf("issuer %s: transactions: credit group %d out of range", issuer, ts.Credit)
		}
		rules.Transactions = &TransactionRule{
			Expr:        re,
			Date:        ts.Date,
			Description: ts.Description,
			Amount:      ts.Amount,
			Credit:      ts.Credit,
		}
	}

	return rules, nil
}

func isSupported(issuer models.Issuer) bool {
	for _, id := range models.Issuers {
		if id == issuer {
			return true
		}
	}
	return false
}

func isScalarField(f models.Field) bool {
	for _, sf := range models.ScalarFields {
		if sf == f {
			return true
		}
	}
	return false
}
