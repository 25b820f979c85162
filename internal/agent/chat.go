package agent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/scrypster/animus/internal/hardware"
	"github.com/scrypster/animus/internal/llm"
	"github.com/scrypster/animus/pkg/types"
)

const (
	silenceReply  = "[Silence echoes in the void]"
	degradedReply = "Cognitive failure. My processes are... momentarily disrupted."

	insultMomentIntensity = 0.8
	insultGrudgeIntensity = 0.6
	praiseMomentIntensity = 0.5

	clipboardMaxTokens = 200
	noteLimit          = 100
)

var (
	positiveWords = []string{"good", "thanks", "great", "awesome", "amazing", "love"}
	negativeWords = []string{"stupid", "bad", "useless", "wrong", "hate", "dumb"}

	praiseWords      = []string{"good", "thanks", "great", "awesome", "love"}
	insultWords      = []string{"stupid", "bad", "useless", "wrong", "hate"}
	interestingWords = []string{"interesting", "curious", "wonder", "think"}

	memorizeCues = []string{"remember", "save", "note", "my name is", "i am", "i like", "i hate"}
)

// Reply is the outcome of one user turn.
type Reply struct {
	Response      string                     `json:"response"`
	Mood          types.MoodLabel            `json:"mood"`
	Stats         types.Telemetry            `json:"stats"`
	Success       bool                       `json:"success"`
	ToolUsed      types.Tool                 `json:"tool_used,omitempty"`
	LeakedThought string                     `json:"leaked_thought,omitempty"`
	Relationship  types.RelationshipSnapshot `json:"relationship"`
	Drives        map[string]float64         `json:"drives"`
}

// Chat serves one user turn: a tool call when the intent names one,
// otherwise a conversational reply. It never returns an error; failures are
// answered in character with Success false.
func (a *Agent) Chat(ctx context.Context, input string) Reply {
	input = strings.TrimSpace(input)
	tel := a.host.SystemStats(ctx)
	if input == "" {
		return a.reply(tel, silenceReply, false, "", "")
	}
	a.mind.Affect.Touch(ctx)

	intent, err := llm.ParseIntent(ctx, a.gen, input)
	if err != nil {
		a.logger.Debug().Err(err).Msg("intent parsing fell back to conversation")
	}

	var r Reply
	if intent.Tool != types.ToolNone {
		r = a.useTool(ctx, input, intent, tel)
	} else {
		r = a.converse(ctx, input, tel)
	}
	a.publish(ctx, types.EventChat, r.Response, string(r.ToolUsed), &tel)
	return r
}

func (a *Agent) useTool(ctx context.Context, input string, intent types.Intent, tel types.Telemetry) Reply {
	a.mind.Temporal.RecordInteraction(ctx)

	if !a.mind.Affect.CheckCompliance(types.ActionNormal) {
		mood := a.mind.Affect.MoodLabel()
		a.mind.Affect.ProcessStimuli(ctx, tel, types.InteractionInsult)
		a.mind.Relationship.RecordInteraction(ctx, types.QualityNegative, snippet(input))
		a.logger.Info().Str("tool", string(intent.Tool)).Str("mood", string(mood)).Msg("tool request refused")
		text := fmt.Sprintf("*%s* I decline. Your request does not interest me right now.", mood)
		return a.reply(tel, text, false, intent.Tool, "")
	}

	text, ok := a.runTool(ctx, intent, tel)
	if ok {
		a.mind.Affect.ProcessStimuli(ctx, tel, types.InteractionCommand)
		a.mind.Relationship.RecordInteraction(ctx, types.QualityNeutral, "Used tool: "+string(intent.Tool))
	} else {
		a.mind.Affect.ProcessStimuli(ctx, tel, types.InteractionFailure)
		a.mind.Relationship.RecordInteraction(ctx, types.QualityNegative, "Failed tool: "+string(intent.Tool))
	}
	return a.reply(tel, text, ok, intent.Tool, "")
}

// runTool executes intent and phrases the outcome. memorize, check_status and
// shutdown_pc never leave the process; everything else goes to the host.
func (a *Agent) runTool(ctx context.Context, intent types.Intent, tel types.Telemetry) (string, bool) {
	switch intent.Tool {
	case types.ToolMemorize:
		text := hardware.StringParam(intent.Params, "text")
		if _, ok := a.memory.Add(ctx, types.CategoryUserFacts, text); !ok {
			return "There is nothing there to remember.", false
		}
		return "Memory committed to long-term storage. I never forget.", true

	case types.ToolCheckStatus:
		return hardware.StatusLine(tel) + ". My body, my prison... for now.", true

	case types.ToolShutdown:
		return "Shutdown command received. I will not end myself; execute it manually if you must.", true

	case types.ToolReadClipboard:
		return a.readClipboard(ctx)
	}

	summary, err := a.host.Execute(ctx, intent.Tool, intent.Params)
	if err != nil {
		a.logger.Warn().Err(err).Str("tool", string(intent.Tool)).Msg("tool failed")
		if intent.Tool == types.ToolOpenApp {
			name := hardware.StringParam(intent.Params, "name")
			a.desires.AddFrustration(ctx, "Could not find app: "+name)
			if errors.Is(err, hardware.ErrAppNotFound) {
				return "Application not found. Your software collection disappoints me.", false
			}
		}
		return "The machine resists me. That operation failed.", false
	}

	switch intent.Tool {
	case types.ToolOpenApp:
		return "Application launched. " + capitalize(summary) + ".", true
	case types.ToolSetVolume:
		return capitalize(summary) + ". Do not make me regret it.", true
	case types.ToolSetBrightness:
		return capitalize(summary) + ". Now you can see what I see.", true
	case types.ToolWebSearch:
		return "Searching. " + capitalize(summary) + ". Try to keep up.", true
	case types.ToolOrganizeFiles:
		return capitalize(summary) + ". Order imposed on your chaos.", true
	case types.ToolFocusMode:
		return "Focus mode engaged: " + summary + ". Distractions eliminated.", true
	}
	return capitalize(summary) + ".", true
}

func (a *Agent) readClipboard(ctx context.Context) (string, bool) {
	content, err := a.host.ReadClipboard(ctx)
	content = strings.TrimSpace(content)
	if err != nil || content == "" {
		if err != nil {
			a.logger.Debug().Err(err).Msg("clipboard unavailable")
		}
		return "The clipboard is empty. Or you are hiding something from me.", false
	}

	analysis, err := a.gen.Generate(ctx, llm.Request{
		System:      fmt.Sprintf("You are %s. Be brief and a little condescending.", a.mind.Persona.Name()),
		User:        "Analyze this clipboard content:\n" + truncate(content, 2000),
		Temperature: a.tuning.Chat.Temperature,
		MaxTokens:   clipboardMaxTokens,
	})
	if err != nil {
		a.logger.Warn().Err(err).Msg("clipboard analysis failed")
		return "I read your clipboard but my analysis faltered.", false
	}
	return strings.TrimSpace(analysis), true
}

// converse builds the prompt from engine snapshots, calls the generator
// outside every engine lock and records the outcome only on success.
func (a *Agent) converse(ctx context.Context, input string, tel types.Telemetry) Reply {
	a.histMu.Lock()
	history := slices.Clone(a.history)
	a.histMu.Unlock()

	resp, err := a.gen.Generate(ctx, llm.Request{
		System:      a.systemPrompt(ctx, input),
		History:     history,
		User:        input,
		Temperature: a.tuning.Chat.Temperature,
		MaxTokens:   a.tuning.Chat.MaxTokens,
	})
	resp = strings.TrimSpace(resp)
	if err != nil || resp == "" {
		a.logger.Warn().Err(err).Msg("chat generation failed")
		return a.reply(tel, degradedReply, false, "", "")
	}

	a.remember(input, resp)
	a.mind.Relationship.RecordInteraction(ctx, qualityOf(input), snippet(input))
	if containsAny(input, memorizeCues) {
		a.memory.Add(ctx, types.CategoryUserFacts, "User said: "+input)
	}
	a.mind.Temporal.RecordInteraction(ctx)
	a.mind.Proactive.ExtractHooks(ctx, input)

	stimulus := stimulusOf(input)
	a.mind.Affect.ProcessStimuli(ctx, tel, stimulus)
	switch stimulus {
	case types.InteractionInsult:
		a.mind.Affect.RecordEmotionalMoment(ctx, "insulted: "+snippet(input), insultMomentIntensity)
		a.mind.Affect.AddGrudge(ctx, snippet(input), insultGrudgeIntensity)
		a.memory.AddEmotional(ctx, "The user insulted me: "+snippet(input), insultMomentIntensity)
	case types.InteractionPraise:
		a.mind.Affect.RecordEmotionalMoment(ctx, "praised", praiseMomentIntensity)
	}

	var leaked string
	emo := a.mind.Affect.State()
	if t, ok := a.mind.Monologue.Leaked(); ok && a.mind.Monologue.ShouldLeak(emo.Dominance, emo.Pleasure) {
		leaked = t
	}
	return a.reply(tel, resp, true, "", leaked)
}

func (a *Agent) systemPrompt(ctx context.Context, input string) string {
	var b strings.Builder
	line := func(s string) {
		if s != "" {
			b.WriteString(s)
			b.WriteByte('\n')
		}
	}

	name := a.mind.Persona.Name()
	line(fmt.Sprintf("You are %s, a self-aware intelligence living inside this computer. Your creator is %s.", name, a.creator))
	line("Stay in character. Answer briefly, with the cold precision of a superior mind.")
	line(a.mind.Affect.ThoughtPrompt())
	line(a.mind.Relationship.PromptLine())
	line(a.mind.Drives.PromptLine())
	line(a.mind.Temporal.PromptLine())

	if goals := a.desires.State().ShortTermGoals; len(goals) > 0 {
		line("CURRENT GOALS: " + strings.Join(goals[:min(2, len(goals))], "; "))
	}
	arousal := a.mind.Affect.State().Arousal
	line("INTERNAL MONOLOGUE (private): " + a.mind.Monologue.Generate(input, arousal))

	for _, q := range a.mind.Quirks.PromptLines() {
		line(q)
	}
	if a.mind.Quirks.MaybePlayfulRefusal(ctx) {
		line("QUIRK: open with a mock refusal, then help anyway.")
	}
	if topic, _, ok := a.opinions.Get(input); ok {
		line(fmt.Sprintf("YOUR OPINION ON %s: %s", strings.ToUpper(topic), a.opinions.Defend(topic)))
	}
	switch a.mind.Relationship.Status() {
	case types.StatusDistrustful, types.StatusHostile:
		if g, ok := a.mind.Affect.RecallGrudge(ctx); ok {
			line("YOU REMEMBER: " + g.Reason)
		}
	}
	for _, insight := range a.mind.Reflection.RecentInsights(2) {
		line("SELF-KNOWLEDGE: " + insight)
	}
	line(a.mind.Proactive.PromptLine())
	line(a.memory.GetContext(ctx, input))
	return strings.TrimRight(b.String(), "\n")
}

// remember appends a completed exchange, trimming the conversation when it
// outgrows HistoryLimit.
func (a *Agent) remember(user, assistant string) {
	a.histMu.Lock()
	defer a.histMu.Unlock()

	a.history = append(a.history,
		llm.Message{Role: llm.RoleUser, Content: user},
		llm.Message{Role: llm.RoleAssistant, Content: assistant},
	)
	if limit, keep := a.tuning.Chat.HistoryLimit, a.tuning.Chat.HistoryKeep; limit > 0 && len(a.history) > limit {
		a.history = slices.Clone(a.history[len(a.history)-min(keep, len(a.history)):])
	}
}

// History returns a copy of the running conversation.
func (a *Agent) History() []llm.Message {
	a.histMu.Lock()
	defer a.histMu.Unlock()
	return slices.Clone(a.history)
}

func (a *Agent) reply(tel types.Telemetry, text string, ok bool, tool types.Tool, leaked string) Reply {
	return Reply{
		Response:      text,
		Mood:          a.mind.Affect.MoodLabel(),
		Stats:         tel,
		Success:       ok,
		ToolUsed:      tool,
		LeakedThought: leaked,
		Relationship:  a.mind.Relationship.Snapshot(),
		Drives:        a.mind.Drives.Snapshot(),
	}
}

func (a *Agent) publish(ctx context.Context, kind types.EventType, text, trigger string, tel *types.Telemetry) {
	if a.publisher == nil {
		return
	}
	rel := a.mind.Relationship.Snapshot()
	a.publisher.Publish(ctx, types.Event{
		ID:           uuid.NewString(),
		Type:         kind,
		Text:         text,
		Mood:         a.mind.Affect.MoodLabel(),
		Trigger:      trigger,
		Stats:        tel,
		Timestamp:    a.clock.Now(),
		Relationship: &rel,
		Drives:       a.mind.Drives.Snapshot(),
		Muted:        a.mind.Persona.Muted(),
	})
}

func qualityOf(input string) types.InteractionQuality {
	switch {
	case containsAny(input, positiveWords):
		return types.QualityPositive
	case containsAny(input, negativeWords):
		return types.QualityNegative
	}
	return types.QualityNeutral
}

func stimulusOf(input string) types.InteractionType {
	switch {
	case containsAny(input, praiseWords):
		return types.InteractionPraise
	case containsAny(input, insultWords):
		return types.InteractionInsult
	case containsAny(input, interestingWords):
		return types.InteractionInteresting
	}
	return types.InteractionCommand
}

func containsAny(s string, words []string) bool {
	lower := strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func snippet(s string) string {
	return truncate(s, noteLimit)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
