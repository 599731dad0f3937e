package plugin

// HookType identifies an extension point in the engine's processing. Each
// value maps to the method of the same name on Plugin. The set is closed and
// versioned together with APIVersion.
type HookType int

const (
	// HookLoadFile activates Plugin.HookLoadFile.
	HookLoadFile HookType = iota
	// HookCallFunction activates Plugin.HookCallFunction.
	HookCallFunction
	// HookQueueEvent activates Plugin.HookQueueEvent.
	HookQueueEvent
	// HookDrainEvents activates Plugin.HookDrainEvents.
	HookDrainEvents
	// HookUpdateNetworkTime activates Plugin.HookUpdateNetworkTime.
	HookUpdateNetworkTime
	// HookObjDtor activates Plugin.HookObjDtor.
	HookObjDtor

	// MetaHookPre activates Plugin.MetaHookPre.
	MetaHookPre
	// MetaHookPost activates Plugin.MetaHookPost.
	MetaHookPost

	numHooks
)

var hookNames = [numHooks]string{
	HookLoadFile:          "LoadFile",
	HookCallFunction:      "CallFunction",
	HookQueueEvent:        "QueueEvent",
	HookDrainEvents:       "DrainEvents",
	HookUpdateNetworkTime: "UpdateNetworkTime",
	HookObjDtor:           "ObjDtor",
	MetaHookPre:           "MetaHookPre",
	MetaHookPost:          "MetaHookPost",
}

// String returns a readable name for the hook type.
func (h HookType) String() string {
	if h < 0 || h >= numHooks {
		return "<unknown>"
	}
	return hookNames[h]
}

// valid reports whether h is one of the defined hook types.
func (h HookType) valid() bool {
	return h >= 0 && h < numHooks
}
