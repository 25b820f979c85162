package types

// Tool names a capability the agent can invoke on the host.
type Tool string

const (
	ToolNone          Tool = "none"
	ToolOpenApp       Tool = "open_app"
	ToolWebSearch     Tool = "web_search"
	ToolSetVolume     Tool = "set_volume"
	ToolSetBrightness Tool = "set_brightness"
	ToolOrganizeFiles Tool = "organize_files"
	ToolFocusMode     Tool = "focus_mode"
	ToolReadClipboard Tool = "read_clipboard"
	ToolMemorize      Tool = "memorize"
	ToolCheckStatus   Tool = "check_status"
	ToolShutdown      Tool = "shutdown_pc"
)

// KnownTools lists every tool an intent may name.
var KnownTools = []Tool{
	ToolOpenApp, ToolWebSearch, ToolSetVolume, ToolSetBrightness, ToolOrganizeFiles,
	ToolFocusMode, ToolReadClipboard, ToolMemorize, ToolCheckStatus, ToolShutdown,
}

// IsKnownTool reports whether t is one of KnownTools.
func IsKnownTool(t Tool) bool {
	for _, k := range KnownTools {
		if k == t {
			return true
		}
	}
	return false
}

// Intent is the structured reading of a user turn.
type Intent struct {
	Tool   Tool           `json:"tool"`
	Params map[string]any `json:"params,omitempty"`
}

// NoIntent is the safe default: just talk.
func NoIntent() Intent {
	return Intent{Tool: ToolNone}
}
