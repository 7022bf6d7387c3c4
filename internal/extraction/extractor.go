// Package extraction turns a sanitized notification into a Transaction using
// a payment source's validated patterns.
package extraction

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paysignal/internal/paymentsource/domain"
	"github.com/smallbiznis/paysignal/internal/sanitize"
	"github.com/smallbiznis/paysignal/internal/validation"
)

const (
	TypeIncome = "income"
	DateLayout = "2006-01-02"
)

var (
	MinAmount = decimal.RequireFromString("0.01")
	MaxAmount = decimal.RequireFromString("999999.99")
)

// Reason explains why Extract did or did not produce a Transaction. Every
// reason other than ReasonMatched is an ordinary no-match.
type Reason string

const (
	ReasonMatched       Reason = "matched"
	ReasonNoIdentifier  Reason = "no_identifier"
	ReasonNoAmount      Reason = "no_amount"
	ReasonInvalidAmount Reason = "invalid_amount"
	ReasonNoPayer       Reason = "no_payer"
	ReasonInvalidPayer  Reason = "invalid_payer"
	ReasonParsingError  Reason = "parsing_error"
)

type Outcome struct {
	Reason Reason
	Errors []string
}

func (o Outcome) Matched() bool { return o.Reason == ReasonMatched }

// Transaction is the canonical extracted record. It is never modified after
// Extract returns it.
type Transaction struct {
	Date      string          `json:"date"`
	Timestamp time.Time       `json:"timestamp"`
	Amount    decimal.Decimal `json:"amount"`
	Payer     string          `json:"payer"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	GroupID   string          `json:"group_id"`
}

// Input holds an already sanitized message and group id together with the
// compiled patterns of the resolved source.
type Input struct {
	Message  string
	GroupID  string
	Source   domain.PaymentSourceConfig
	AmountRe *regexp.Regexp
	PayerRe  *regexp.Regexp
	Now      time.Time
}

func Extract(in Input) (*Transaction, Outcome) {
	if in.Source.Identifier == "" || !strings.Contains(in.Message, in.Source.Identifier) {
		return nil, Outcome{Reason: ReasonNoIdentifier}
	}

	literal, ok := FirstCapture(in.AmountRe, in.Message)
	if !ok {
		return nil, Outcome{Reason: ReasonNoAmount}
	}
	amount := ValidateAmount(literal)
	if !amount.OK() {
		return nil, Outcome{Reason: ReasonInvalidAmount, Errors: amount.Errors}
	}

	raw, ok := FirstCapture(in.PayerRe, in.Message)
	if !ok {
		return nil, Outcome{Reason: ReasonNoPayer}
	}
	payer := ValidatePayer(raw)
	if !payer.OK() {
		return nil, Outcome{Reason: ReasonInvalidPayer, Errors: payer.Errors}
	}

	return &Transaction{
		Date:      in.Now.Format(DateLayout),
		Timestamp: in.Now.UTC(),
		Amount:    amount.Amount,
		Payer:     payer.Sanitized,
		Type:      TypeIncome,
		Source:    in.Source.DisplayName,
		GroupID:   in.GroupID,
	}, Outcome{Reason: ReasonMatched}
}

// FirstCapture returns group 1 of the leftmost match.
func FirstCapture(re *regexp.Regexp, text string) (string, bool) {
	if re == nil {
		return "", false
	}
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

type AmountResult struct {
	validation.Result
	Amount decimal.Decimal
}

// ValidateAmount parses a captured amount literal, enforces the accepted
// range and at most two fractional digits, and rounds to cents.
func ValidateAmount(literal string) AmountResult {
	res := AmountResult{Result: validation.New()}

	literal = strings.TrimSpace(literal)
	value, err := decimal.NewFromString(literal)
	if literal == "" || err != nil || strings.ContainsAny(literal, "eE") {
		res.AddError("Invalid amount format")
		return res
	}

	if value.LessThan(MinAmount) {
		res.AddError("Amount too small (min $%s)", MinAmount.String())
	}
	if value.GreaterThan(MaxAmount) {
		res.AddError("Amount too large (max $%s)", MaxAmount.String())
	}
	if i := strings.LastIndexByte(literal, '.'); i >= 0 && len(literal)-i-1 > 2 {
		res.AddError("Too many decimal places for currency")
	}

	res.Amount = value.Round(2)
	return res
}

// ValidatePayer sanitizes a captured payer name. The capture comes from
// text that is already escaped, so it is unescaped first to avoid encoding
// entities twice.
func ValidatePayer(raw string) sanitize.PayerResult {
	res := sanitize.PayerName(html.UnescapeString(raw))
	if res.OK() && res.Sanitized == "" {
		res.AddError("Payer name is empty")
	}
	return res
}
