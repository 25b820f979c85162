package engine

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/pkg/types"
)

// hookRule turns a keyword in a user message into a hook and a follow-up.
type hookRule struct {
	keyword string
	topic   string
	urgency float64
}

var hookRules = []hookRule{
	{"tomorrow", "what they had planned for tomorrow", 0.6},
	{"later", "the thing they meant to do later", 0.3},
	{"next week", "their plans for next week", 0.4},
	{"interview", "how their interview went", 0.9},
	{"exam", "how their exam went", 0.9},
	{"deadline", "whether they met their deadline", 0.8},
	{"working on", "the project they were working on", 0.5},
	{"planning", "the plan they were making", 0.4},
}

// DefaultProactiveState has nothing pending.
func DefaultProactiveState(t config.ProactiveTuning) types.ProactiveState {
	return types.ProactiveState{
		PendingFollowups:  []types.Followup{},
		ConversationHooks: []types.ConversationHook{},
		CooldownSeconds:   int(t.Cooldown / time.Second),
	}
}

// ProactiveEngine remembers what the user mentioned so the agent can bring
// it up unprompted.
type ProactiveEngine struct {
	mu     sync.RWMutex
	state  types.ProactiveState
	tuning config.ProactiveTuning
	clock  Clock
	bind   binding[types.ProactiveState]
}

// NewProactiveEngine loads pending follow-ups and hooks.
func NewProactiveEngine(ctx context.Context, deps Deps) *ProactiveEngine {
	deps = deps.withDefaults()
	e := &ProactiveEngine{
		tuning: deps.Tuning.Proactive,
		clock:  deps.Clock,
		bind:   newBinding[types.ProactiveState](deps, storage.KeyProactive),
	}
	e.state = e.bind.load(ctx, func() types.ProactiveState { return DefaultProactiveState(e.tuning) }, e.normalize)
	return e
}

func (e *ProactiveEngine) normalize(s *types.ProactiveState) {
	if s.CooldownSeconds <= 0 {
		s.CooldownSeconds = int(e.tuning.Cooldown / time.Second)
	}
	for _, f := range s.PendingFollowups {
		if f.Seq >= s.NextSeq {
			s.NextSeq = f.Seq + 1
		}
	}
	s.PendingFollowups = e.boundFollowups(s.PendingFollowups)
	s.ConversationHooks = trimFront(s.ConversationHooks, e.tuning.HookCap)
}

// boundFollowups enforces the cap, evicting consumed items before the
// oldest open ones.
func (e *ProactiveEngine) boundFollowups(fs []types.Followup) []types.Followup {
	if len(fs) <= e.tuning.FollowupCap {
		return fs
	}
	open := make([]types.Followup, 0, len(fs))
	for _, f := range fs {
		if !f.FollowedUp {
			open = append(open, f)
		}
	}
	if len(open) >= e.tuning.FollowupCap {
		return trimFront(open, e.tuning.FollowupCap)
	}
	drop := len(fs) - e.tuning.FollowupCap
	out := make([]types.Followup, 0, e.tuning.FollowupCap)
	for _, f := range fs {
		if f.FollowedUp && drop > 0 {
			drop--
			continue
		}
		out = append(out, f)
	}
	return out
}

// AddFollowup queues a topic to return to.
func (e *ProactiveEngine) AddFollowup(ctx context.Context, topic, note string, urgency float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.addFollowup(topic, note, urgency)
	_ = e.bind.save(ctx, e.state)
}

func (e *ProactiveEngine) addFollowup(topic, note string, urgency float64) {
	s := &e.state
	s.PendingFollowups = append(s.PendingFollowups, types.Followup{
		Seq:     s.NextSeq,
		Topic:   topic,
		Context: truncate(note, e.tuning.SnippetMaxLength),
		AddedAt: e.clock.Now(),
		Urgency: clamp01(urgency),
	})
	s.NextSeq++
	s.PendingFollowups = e.boundFollowups(s.PendingFollowups)
}

// ExtractHooks scans a user message for time-bound plans and remembers each
// one as a hook plus a follow-up. It returns the keywords found.
func (e *ProactiveEngine) ExtractHooks(ctx context.Context, message string) []string {
	lower := strings.ToLower(message)
	var found []hookRule
	for _, r := range hookRules {
		if strings.Contains(lower, r.keyword) {
			found = append(found, r)
		}
	}
	if len(found) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	snippet := truncate(strings.TrimSpace(message), e.tuning.SnippetMaxLength)
	keywords := make([]string, 0, len(found))
	for _, r := range found {
		e.state.ConversationHooks = append(e.state.ConversationHooks, types.ConversationHook{
			Hook:                   r.keyword,
			OriginalMessageSnippet: snippet,
			AddedAt:                now,
		})
		e.addFollowup(r.topic, snippet, r.urgency)
		keywords = append(keywords, r.keyword)
	}
	e.state.ConversationHooks = trimFront(e.state.ConversationHooks, e.tuning.HookCap)
	_ = e.bind.save(ctx, e.state)
	return keywords
}

// CanSpeak reports whether the proactive cooldown has elapsed.
func (e *ProactiveEngine) CanSpeak() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.canSpeak(e.clock.Now())
}

func (e *ProactiveEngine) canSpeak(now time.Time) bool {
	cooldown := time.Duration(e.state.CooldownSeconds) * time.Second
	return e.state.LastProactiveMessageAt.IsZero() || now.Sub(e.state.LastProactiveMessageAt) >= cooldown
}

// NextTopic picks the most urgent open follow-up (earliest added on ties),
// marks it consumed and restarts the cooldown.
func (e *ProactiveEngine) NextTopic(ctx context.Context) (types.Followup, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	if !e.canSpeak(now) {
		return types.Followup{}, false
	}

	var open []int
	for i, f := range e.state.PendingFollowups {
		if !f.FollowedUp {
			open = append(open, i)
		}
	}
	if len(open) == 0 {
		return types.Followup{}, false
	}
	fs := e.state.PendingFollowups
	sort.SliceStable(open, func(a, b int) bool {
		fa, fb := fs[open[a]], fs[open[b]]
		if fa.Urgency != fb.Urgency {
			return fa.Urgency > fb.Urgency
		}
		return fa.Seq < fb.Seq
	})

	chosen := &fs[open[0]]
	chosen.FollowedUp = true
	e.state.LastProactiveMessageAt = now
	_ = e.bind.save(ctx, e.state)
	return *chosen, true
}

// PromptLine lists the most recent hooks; empty when there are none.
func (e *ProactiveEngine) PromptLine() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	hooks := e.state.ConversationHooks
	if len(hooks) == 0 {
		return ""
	}
	hooks = trimFront(hooks, 3)
	parts := make([]string, 0, len(hooks))
	for _, h := range hooks {
		parts = append(parts, "\""+h.OriginalMessageSnippet+"\"")
	}
	return "THE USER MENTIONED: " + strings.Join(parts, "; ")
}

// State returns a copy of the proactive state.
func (e *ProactiveEngine) State() types.ProactiveState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := e.state
	out.PendingFollowups = append([]types.Followup(nil), e.state.PendingFollowups...)
	out.ConversationHooks = append([]types.ConversationHook(nil), e.state.ConversationHooks...)
	return out
}
