package parser

import (
	"strings"

	"go.uber.org/zap"

	"github.com/virti1331/cc-statement-parser/internal/models"
)

// Extract evaluates the issuer's rules against document text. Patterns match
// the NFKC-folded text while values are copied from the original characters.
// Each field is independent of the others; a field with no matching pattern
// is left nil and recorded in the result's Missing list.
func (r *IssuerRules) Extract(text string, log *zap.Logger) *models.Statement {
	log = log.With(zap.String("issuer", string(r.Issuer)))
	doc := foldText(text)

	st := &models.Statement{
		Issuer:       r.Issuer,
		Transactions: []models.Transaction{},
	}

	for _, field := range models.ScalarFields {
		value, ok := r.extractField(field, doc)
		if !ok {
			st.Missing = append(st.Missing, field)
			log.Warn("field not found", zap.String("field", string(field)))
			continue
		}
		st.Set(field, &value)
		log.Info("field extracted",
			zap.String("field", string(field)),
			zap.String("value", value))
	}

	if r.Transactions != nil {
		st.Transactions = r.Transactions.scan(doc)
	}
	log.Info("transactions extracted", zap.Int("count", len(st.Transactions)))

	return st
}

// extractField returns the value of the first matching pattern for field.
func (r *IssuerRules) extractField(field models.Field, doc *foldedText) (string, bool) {
	rule, ok := r.Fields[field]
	if !ok {
		return "", false
	}
	for _, p := range rule.Patterns {
		m := p.Expr.FindStringSubmatchIndex(doc.folded)
		if m == nil {
			continue
		}
		value := trimValue(doc.source(m[2*p.Group], m[2*p.Group+1]))
		if value == "" {
			continue
		}
		switch field {
		case models.FieldTotalAmountDue:
			return withCurrency(rule.Currency, value), true
		case models.FieldBillingPeriod, models.FieldPaymentDueDate:
			return rawDate(value), true
		default:
			return value, true
		}
	}
	return "", false
}

// scan collects every transaction row in document order. Rows never span
// lines, so the text is matched one line at a time.
func (t *TransactionRule) scan(doc *foldedText) []models.Transaction {
	txns := []models.Transaction{}
	offset := 0
	for _, line := range strings.Split(doc.folded, "\n") {
		for _, m := range t.Expr.FindAllStringSubmatchIndex(line, -1) {
			group := func(g int) string {
				if m[2*g] < 0 {
					return ""
				}
				return doc.source(offset+m[2*g], offset+m[2*g+1])
			}

			amount := trimValue(group(t.Amount))
			if t.Credit > 0 && m[2*t.Credit] >= 0 &&
				strings.EqualFold(trimValue(line[m[2*t.Credit]:m[2*t.Credit+1]]), "cr") {
				amount = "-" + amount
			}
			txns = append(txns, models.Transaction{
				Date:        rawDate(group(t.Date)),
				Description: trimValue(group(t.Description)),
				Amount:      amount,
			})
		}
		offset += len(line) + 1
	}
	return txns
}
