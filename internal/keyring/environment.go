package keyring

import "strings"

// Environment is the runtime mode controlling key-provisioning policy.
type Environment string

const (
	// Development auto-provisions a transient key when none exists.
	Development Environment = "development"
	// Staging is treated like production: no auto-provisioning, fail closed.
	Staging Environment = "staging"
	// Production fails closed on any key problem.
	Production Environment = "production"
)

// ParseEnvironment normalizes an environment string, accepting the common
// short forms. Unknown values map to Development, matching the toolkit's
// default of being permissive only outside deployed environments.
func ParseEnvironment(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production":
		return Production
	case "stage", "staging":
		return Staging
	default:
		return Development
	}
}

// FailClosed reports whether key problems must stop the process instead of
// degrading. Staging deliberately counts: a staging host running unencrypted
// is the same incident as production running unencrypted.
func (e Environment) FailClosed() bool {
	return e == Production || e == Staging
}
