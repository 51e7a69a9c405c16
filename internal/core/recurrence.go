package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Frequency labels as stored by the back office.
const (
	LabelOnce         = "Única"
	LabelMonthlyFixed = "Mensal Fixo"
	LabelMonthlyTerm  = "Mensal por Tempo Determinado"
	LabelAnnualFixed  = "Anual Fixo"
	LabelAnnualTerm   = "Anual por Tempo Determinado"
)

// MaxInstallments bounds the occurrences accepted on write.
const MaxInstallments = 1200

// maxTermYears keeps LastMonth arithmetic far from int overflow while staying
// beyond any reachable axis end.
const maxTermYears = 10000

// RecurrenceKind is the closed set of repetition rules.
type RecurrenceKind int

const (
	Once RecurrenceKind = iota
	MonthlyFixed
	MonthlyFixedTerm
	AnnualFixed
	AnnualFixedTerm
)

func (k RecurrenceKind) String() string {
	switch k {
	case Once:
		return "once"
	case MonthlyFixed:
		return "monthly_fixed"
	case MonthlyFixedTerm:
		return "monthly_term"
	case AnnualFixed:
		return "annual_fixed"
	case AnnualFixedTerm:
		return "annual_term"
	default:
		return "unknown"
	}
}

// Recurrence describes how an item repeats. Count is only meaningful for the
// term kinds and holds the number of occurrences.
type Recurrence struct {
	Kind  RecurrenceKind
	Count int
}

func NewOnce() Recurrence         { return Recurrence{Kind: Once} }
func NewMonthlyFixed() Recurrence { return Recurrence{Kind: MonthlyFixed} }
func NewAnnualFixed() Recurrence  { return Recurrence{Kind: AnnualFixed} }

func NewMonthlyTerm(n int) Recurrence {
	return Recurrence{Kind: MonthlyFixedTerm, Count: n}
}

func NewAnnualTerm(n int) Recurrence {
	return Recurrence{Kind: AnnualFixedTerm, Count: n}
}

// IsTerm reports whether the rule has a fixed number of occurrences.
func (r Recurrence) IsTerm() bool {
	return r.Kind == MonthlyFixedTerm || r.Kind == AnnualFixedTerm
}

func (r Recurrence) valid() bool {
	switch r.Kind {
	case Once, MonthlyFixed, AnnualFixed:
		return true
	case MonthlyFixedTerm, AnnualFixedTerm:
		return r.Count > 0
	default:
		return false
	}
}

// LastMonth returns the month of the final occurrence for term rules starting
// at anchor. The second result is false for unbounded rules and Once.
func (r Recurrence) LastMonth(anchor MonthKey) (MonthKey, bool) {
	if !r.valid() {
		return MonthKey{}, false
	}
	switch r.Kind {
	case MonthlyFixedTerm:
		return anchor.AddMonths(min(r.Count-1, maxTermYears*12)), true
	case AnnualFixedTerm:
		return anchor.AddYears(min(r.Count-1, maxTermYears)), true
	default:
		return MonthKey{}, false
	}
}

// Label returns the back-office label for the rule.
func (r Recurrence) Label() string {
	switch r.Kind {
	case Once:
		return LabelOnce
	case MonthlyFixed:
		return LabelMonthlyFixed
	case MonthlyFixedTerm:
		return LabelMonthlyTerm
	case AnnualFixedTerm:
		return LabelAnnualTerm
	default:
		return LabelAnnualFixed
	}
}

var recurrenceLabels = map[string]RecurrenceKind{
	normalizeLabel(LabelOnce):         Once,
	normalizeLabel(LabelMonthlyFixed): MonthlyFixed,
	normalizeLabel(LabelMonthlyTerm):  MonthlyFixedTerm,
	normalizeLabel(LabelAnnualFixed):  AnnualFixed,
	normalizeLabel(LabelAnnualTerm):   AnnualFixedTerm,
}

// ParseRecurrence converts a stored frequency label and installment count
// into a Recurrence. Matching ignores case, accents and repeated spaces.
// Unknown labels fall back to AnnualFixed and report known=false.
func ParseRecurrence(label string, installments int) (r Recurrence, known bool) {
	kind, ok := recurrenceLabels[normalizeLabel(label)]
	if !ok {
		return NewAnnualFixed(), false
	}
	switch kind {
	case MonthlyFixedTerm, AnnualFixedTerm:
		return Recurrence{Kind: kind, Count: installments}, true
	default:
		return Recurrence{Kind: kind}, true
	}
}

func normalizeLabel(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}
