package ports

// SecurityScopeProvider grants sandboxed read access to folders outside the
// application's own storage.
//
// Thread-safety: Implementations must be thread-safe.
type SecurityScopeProvider interface {
	// RequiresScope reports whether location lies outside the app's storage roots.
	RequiresScope(location string) bool

	// BeginScope starts access to the parent folder of location.
	// Returns false if access could not be obtained.
	BeginScope(location string) bool

	// EndScope releases access previously started for location.
	// Calling it for a location without an active scope is a no-op.
	EndScope(location string)
}
