package plugin

import "fmt"

// APIVersion is the plugin API compatibility level. A plugin whose stamped
// version differs from this value is rejected at registration time. It must
// be bumped whenever HookType, the hook signatures, or the argument variant
// change incompatibly.
const APIVersion = 3

// VersionNumber captures a plugin's version. The zero value is "unset".
type VersionNumber struct {
	Major int
	Minor int
}

// UnsetVersion returns the unset version marker.
func UnsetVersion() VersionNumber {
	return VersionNumber{Major: -1, Minor: -1}
}

// Valid reports whether the version has been set to non-negative numbers.
func (v VersionNumber) Valid() bool {
	return v.Major >= 0 && v.Minor >= 0
}

// String renders the version, or "-" when unset.
func (v VersionNumber) String() string {
	if !v.Valid() {
		return "-"
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Configuration holds a plugin's static configuration parameters, returned
// from its Configure method. Name is mandatory and should be namespaced
// (e.g. "Kestrel::SQLiteLog"); it must be unique across all plugins.
type Configuration struct {
	Name        string
	Description string
	Version     VersionNumber

	// apiVersion is stamped by the framework during registration; plugins
	// cannot set it.
	apiVersion int
}

// NewConfiguration creates a configuration with an unset version and the
// current API version stamped.
func NewConfiguration(name, description string) Configuration {
	return Configuration{
		Name:        name,
		Description: description,
		Version:     UnsetVersion(),
		apiVersion:  APIVersion,
	}
}

// NewDynamicConfiguration creates a configuration carrying the API version a
// dynamically loaded plugin was built against, as declared by its manifest.
// Registration rejects the plugin when it does not match APIVersion.
func NewDynamicConfiguration(name, description string, api int) Configuration {
	c := NewConfiguration(name, description)
	c.apiVersion = api
	return c
}
