package schema

import "sync"

// Global registry instance and initialization guard.
var (
	globalSet  Set
	globalOnce sync.Once
)

// Global returns the process-wide model set.
// Creates an empty set on first call if not already initialized.
func Global() Set {
	globalOnce.Do(func() {
		globalSet = Set{}
	})
	return globalSet
}

// InitGlobal initializes the process-wide model set with a custom instance.
// Must be called before any call to Global() to take effect.
// Safe for concurrent use but only the first call has any effect.
func InitGlobal(s Set) {
	globalOnce.Do(func() {
		globalSet = s
	})
}

// ResetGlobal resets the process-wide set for testing purposes.
// This is NOT thread-safe and should only be used in tests.
func ResetGlobal() {
	globalOnce = sync.Once{}
	globalSet = nil
}
