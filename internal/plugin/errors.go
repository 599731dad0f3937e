package plugin

import "errors"

// Registration errors. These are load-time configuration faults: a plugin
// failing registration is reported and never activated.
var (
	// ErrMissingName indicates a plugin configuration without a name.
	ErrMissingName = errors.New("plugin: configuration has no name")

	// ErrAPIVersionMismatch indicates a plugin built against a different
	// plugin API level than the engine's.
	ErrAPIVersionMismatch = errors.New("plugin: API version mismatch")

	// ErrDuplicateName indicates a second plugin registering an already
	// taken name.
	ErrDuplicateName = errors.New("plugin: name already registered")

	// ErrAlreadyRegistered indicates a plugin registered twice.
	ErrAlreadyRegistered = errors.New("plugin: already registered")
)
