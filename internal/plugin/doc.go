// Package plugin implements the engine's extension framework. A plugin is a
// logical container of functionality: it may contribute components to engine
// subsystems, declare builtin script items, and hook into the engine's core
// processing points.
//
// Plugins embed Base and provide a Configure method returning their identity.
// They register everything they provide explicitly: components through
// AddComponent, builtin items through AddBuiltinItem, and hooks through
// EnableHook plus an implementation of the corresponding hook method.
//
// The Manager owns the per-hook priority registries and drives dispatch. For
// every hook occurrence it invokes the meta hooks of subscribed plugins before
// and after the hook itself, whether or not any plugin handles the hook.
package plugin
