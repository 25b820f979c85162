package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/scrypster/animus/pkg/types"
)

// conversationalPhrases never trigger a tool.
var conversationalPhrases = []string{
	"hello", "hi", "hey", "greetings", "good morning", "good afternoon",
	"good evening", "how are you", "what's up", "sup", "yo", "hola",
	"how do you feel", "how's it going", "what are you thinking",
	"tell me about yourself", "who are you", "what are you",
	"nice to meet you", "good to see you", "thanks", "thank you",
}

const intentPrompt = `You translate a user's message into at most one tool call. Reply with a JSON object only.

Message: %q

Tools:
- open_app {"name"}: the user explicitly asks to open or launch an application
- web_search {"query", "site_name"}: the user explicitly asks to search for something
- set_volume {"value" 0-100}: the user asks to change the volume
- set_brightness {"value" 0-100}: the user asks to change the screen brightness
- organize_files {}: the user asks to organize or clean the downloads folder
- focus_mode {}: the user asks for focus mode or to close distractions
- read_clipboard {}: the user asks about the clipboard contents
- memorize {"text"}: the user explicitly asks you to remember a fact, e.g. "remember that I like tea" -> {"tool": "memorize", "params": {"text": "User likes tea"}}
- check_status {}: the user asks for system status or stats
- shutdown_pc {}: the user asks to shut the computer down
- none: greetings, questions, conversation, anything else

Only choose a tool for a clear, explicit command.
Format: {"tool": "tool_name", "params": {"key": "value"}}`

// IsConversational reports whether input is small talk that must never be
// treated as a command.
func IsConversational(input string) bool {
	lower := strings.ToLower(strings.TrimSpace(input))
	for _, p := range conversationalPhrases {
		if lower == p || strings.HasPrefix(lower, p+" ") || strings.HasSuffix(lower, " "+p) {
			return true
		}
	}
	return false
}

// ParseIntent reads a tool call out of the user's turn. It never fails: any
// collaborator error, malformed output or unknown tool yields NoIntent. The
// error is returned only so callers can log it.
func ParseIntent(ctx context.Context, gen Generator, input string) (types.Intent, error) {
	if IsConversational(input) {
		return types.NoIntent(), nil
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "write") {
		return types.NoIntent(), nil
	}

	raw, err := gen.Generate(ctx, Request{
		User:        fmt.Sprintf(intentPrompt, input),
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return types.NoIntent(), err
	}

	var intent types.Intent
	if err := DecodeJSON(raw, &intent); err != nil {
		return types.NoIntent(), err
	}
	intent.Tool = types.Tool(strings.ToLower(strings.TrimSpace(string(intent.Tool))))
	if intent.Tool == "" || intent.Tool == types.ToolNone {
		return types.NoIntent(), nil
	}
	if !types.IsKnownTool(intent.Tool) {
		return types.NoIntent(), fmt.Errorf("%w: unknown tool %q", ErrMalformed, intent.Tool)
	}
	if intent.Params == nil {
		intent.Params = map[string]any{}
	}
	return intent, nil
}
