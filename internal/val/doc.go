// Package val defines the engine's script-level value model: tagged values,
// value lists, function and frame descriptors, and queued events. It is a leaf
// package shared by the interpreter, the event manager, and the plugin
// framework so that hook signatures do not create import cycles.
package val
