package parser

import (
	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedIssuer is returned when no issuer keyword matches.
	ErrUnsupportedIssuer = errors.New("unable to detect credit card issuer; supported issuers: HDFC Bank, ICICI Bank, Axis Bank, Chase, IDFC First Bank")

	// ErrEmptyDocument is returned when there is no text to parse.
	ErrEmptyDocument = errors.New("document contains no extractable text")
)
