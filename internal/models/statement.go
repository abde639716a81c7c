package models

// Issuer identifies the bank that produced a credit card statement.
type Issuer string

const (
	IssuerHDFC  Issuer = "HDFC"
	IssuerICICI Issuer = "ICICI"
	IssuerAxis  Issuer = "AXIS"
	IssuerChase Issuer = "CHASE"
	IssuerIDFC  Issuer = "IDFC"
)

// Issuers lists the supported issuers in detection priority order.
var Issuers = []Issuer{IssuerHDFC, IssuerICICI, IssuerAxis, IssuerChase, IssuerIDFC}

// Field names a value extracted from a statement.
type Field string

const (
	FieldCardLast4      Field = "card_last_4_digits"
	FieldBillingPeriod  Field = "billing_period"
	FieldPaymentDueDate Field = "payment_due_date"
	FieldTotalAmountDue Field = "total_amount_due"
	FieldTransactions   Field = "transactions"
)

// ScalarFields lists the single-valued fields in extraction order.
var ScalarFields = []Field{FieldCardLast4, FieldBillingPeriod, FieldPaymentDueDate, FieldTotalAmountDue}

// Transaction is one statement row. All values are copied from the source
// text; the amount carries a leading "-" for credits.
type Transaction struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// Statement is the record extracted from one document. Scalar fields are nil
// when none of the issuer's patterns matched.
type Statement struct {
	Issuer         Issuer        `json:"issuer"`
	CardLast4      *string       `json:"card_last_4_digits"`
	BillingPeriod  *string       `json:"billing_period"`
	PaymentDueDate *string       `json:"payment_due_date"`
	TotalAmountDue *string       `json:"total_amount_due"`
	Transactions   []Transaction `json:"transactions"`

	// Missing records the fields no pattern matched, in extraction order.
	Missing []Field `json:"-"`
}

// Set stores v in the scalar field f.
func (s *Statement) Set(f Field, v *string) {
	switch f {
	case FieldCardLast4:
		s.CardLast4 = v
	case FieldBillingPeriod:
		s.BillingPeriod = v
	case FieldPaymentDueDate:
		s.PaymentDueDate = v
	case FieldTotalAmountDue:
		s.TotalAmountDue = v
	}
}

// Get returns the value of the scalar field f.
func (s *Statement) Get(f Field) *string {
	switch f {
	case FieldCardLast4:
		return s.CardLast4
	case FieldBillingPeriod:
		return s.BillingPeriod
	case FieldPaymentDueDate:
		return s.PaymentDueDate
	case FieldTotalAmountDue:
		return s.TotalAmountDue
	}
	return nil
}
