// Package script implements the engine's script interpreter on top of
// gopher-lua. It is the sole caller of the CallFunction and load-file hooks:
// every input file and every script-level function call is offered to the
// plugin framework before the interpreter processes it itself.
package script
