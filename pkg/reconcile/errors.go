package reconcile

import "fmt"

// ReconciliationError reports a desired package whose install path cannot
// be satisfied, currently always a restricted package with no qualifying
// source-package repository. It is fatal to that package's actions only;
// the rest of the plan proceeds.
type ReconciliationError struct {
	Package string
	Reason  string
}

// Error implements the error interface.
func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("package %q: %s", e.Package, e.Reason)
}

func restrictedErr(symbol string) *ReconciliationError {
	return &ReconciliationError{
		Package: symbol,
		Reason:  "restricted package requires a local void-packages repository and none is configured",
	}
}
