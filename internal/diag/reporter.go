package diag

import (
	"fmt"

	"tsl/internal/source"
)

// Reporter is the minimal contract through which phases hand over
// diagnostics. Implementations: BagReporter and NopReporter.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter stores every reported diagnostic in a Bag.
type BagReporter struct {
	Bag *Bag
}

func NewBagReporter(max int) *BagReporter {
	return &BagReporter{Bag: NewBag(max)}
}

func (r *BagReporter) Report(d Diagnostic) {
	r.Bag.Add(d)
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}

// Errorf reports a formatted error-severity diagnostic.
func Errorf(r Reporter, code Code, primary source.Span, format string, args ...any) {
	r.Report(NewError(code, primary, fmt.Sprintf(format, args...)))
}

// Warnf reports a formatted warning-severity diagnostic.
func Warnf(r Reporter, code Code, primary source.Span, format string, args ...any) {
	r.Report(New(SevWarning, code, primary, fmt.Sprintf(format, args...)))
}
