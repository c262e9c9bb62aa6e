package pkgdef

import "fmt"

// DefinitionFormatError reports a definition unit that does not reduce
// to a single symbol bound to a descriptor-shaped map. It excludes only
// that unit's symbol from the registry; loading continues.
type DefinitionFormatError struct {
	File   string
	Symbol string
	Reason string
}

// Error implements the error interface.
func (e *DefinitionFormatError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("%s: invalid package definition: %s", e.File, e.Reason)
	}
	return fmt.Sprintf("%s: invalid definition for %q: %s", e.File, e.Symbol, e.Reason)
}
