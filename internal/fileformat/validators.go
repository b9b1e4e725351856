package fileformat

import (
	"fmt"
	"sync"
)

// RowValidator checks cross-column conditions on a single processed row.
// It may append row or file errors to the report; rowIndex is the row's
// position in the original input.
type RowValidator func(rowIndex int, row Row, report *Report)

// ValidatorRegistry resolves row validators referenced by name from a
// format's validators option. Registration happens once at startup; the
// registry is read-only during processing.
type ValidatorRegistry struct {
	mu sync.RWMutex
	m  map[string]RowValidator
}

// NewValidatorRegistry creates an empty registry.
func NewValidatorRegistry() *ValidatorRegistry {
	return &ValidatorRegistry{m: make(map[string]RowValidator)}
}

// Register adds a named validator.
// Panics if a validator with the same name is already registered.
func (r *ValidatorRegistry) Register(name string, fn RowValidator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.m[name]; exists {
		panic(fmt.Sprintf("row validator already registered: %s", name))
	}
	r.m[name] = fn
}

// Get returns the validator with the given name.
// Returns false if not found.
func (r *ValidatorRegistry) Get(name string) (RowValidator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.m[name]
	return fn, ok
}

// defaultValidators is the process-wide registry used by formats that do
// not carry their own.
var defaultValidators = NewValidatorRegistry()

// RegisterValidator adds a named validator to the default registry.
func RegisterValidator(name string, fn RowValidator) {
	defaultValidators.Register(name, fn)
}
