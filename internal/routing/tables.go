package routing

// Task types understood by the router. Unknown task types fall back to the
// text-writing preference list.
const (
	TaskTextWriting = "text-writing"
	TaskTextChat    = "text-chat"
	TaskImage       = "image"
	TaskCode        = "code"
)

// candidate is one (provider, model) entry in a task preference list.
type candidate struct {
	Provider string
	Model    string
}

// taskPreferences maps each task type to its candidate providers, most
// preferred first. Loaded once at startup as immutable configuration; never
// mutated at runtime.
var taskPreferences = map[string][]candidate{
	TaskTextWriting: {
		{"anthropic", "claude-sonnet-4-20250514"},
		{"openai", "gpt-4o"},
		{"google", "gemini-2.5-pro"},
		{"xai", "grok-3"},
	},
	TaskTextChat: {
		{"openai", "gpt-4o-mini"},
		{"anthropic", "claude-3-5-haiku-20241022"},
		{"google", "gemini-2.5-flash"},
		{"xai", "grok-3-mini"},
	},
	TaskImage: {
		{"openai", "dall-e-3"},
	},
	TaskCode: {
		{"anthropic", "claude-sonnet-4-20250514"},
		{"openai", "gpt-4.1"},
		{"xai", "grok-3-mini"},
		{"google", "gemini-2.5-flash"},
	},
}

// fallbackModels names the default model per provider, used only when no
// preference-list entry matches an active credential.
var fallbackModels = map[string]string{
	"openai":    "gpt-4o",
	"anthropic": "claude-sonnet-4-20250514",
	"google":    "gemini-2.5-flash",
	"xai":       "grok-3",
}

// baselineModel is the last-resort model for providers absent from
// fallbackModels.
const baselineModel = "gpt-4o"
