// Package loader discovers and activates dynamically loaded plugins. A
// plugin is a directory containing a plugin.json manifest and a Lua entry
// script; the loader validates the manifest, wraps the script in a plugin
// implementation, and hands it to the plugin manager.
package loader
