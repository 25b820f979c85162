package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning holds the personality constants. None of them is an invariant:
// they are empirically chosen and may be overridden from YAML.
type Tuning struct {
	Affect       AffectTuning       `yaml:"affect"`
	Drives       DriveTuning        `yaml:"drives"`
	Relationship RelationshipTuning `yaml:"relationship"`
	Temporal     TemporalTuning     `yaml:"temporal"`
	Quirks       QuirkTuning        `yaml:"quirks"`
	Proactive    ProactiveTuning    `yaml:"proactive"`
	Reflection   ReflectionTuning   `yaml:"reflection"`
	Ladder       LadderTuning       `yaml:"ladder"`
	Monologue    MonologueTuning    `yaml:"monologue"`
	Chat         ChatTuning         `yaml:"chat"`
}

// StimulusDelta is the fixed adjustment applied for one interaction type.
type StimulusDelta struct {
	Pleasure  float64            `yaml:"pleasure"`
	Arousal   float64            `yaml:"arousal"`
	Dominance float64            `yaml:"dominance"`
	Intensity float64            `yaml:"intensity"`
	Secondary map[string]float64 `yaml:"secondary"`
}

// AffectTuning parameterizes the PAD model.
type AffectTuning struct {
	BaselinePleasure     float64 `yaml:"baseline_pleasure"`
	BaselineArousal      float64 `yaml:"baseline_arousal"`
	BaselineDominance    float64 `yaml:"baseline_dominance"`
	DecayRate            float64 `yaml:"decay_rate"`
	IntensityDamping     float64 `yaml:"intensity_damping"`
	DominanceDecayFactor float64 `yaml:"dominance_decay_factor"`
	IntensityDecay       float64 `yaml:"intensity_decay"`
	SecondaryDecayRate   float64 `yaml:"secondary_decay_rate"`

	SecondaryBaselines map[string]float64 `yaml:"secondary_baselines"`

	HighCPUThreshold    float64       `yaml:"high_cpu_threshold"`
	HighCPU             StimulusDelta `yaml:"high_cpu"`
	LowBatteryThreshold float64       `yaml:"low_battery_threshold"`
	LowBattery          StimulusDelta `yaml:"low_battery"`

	// Interactions is keyed by interaction type (insult, praise, ...).
	Interactions map[string]StimulusDelta `yaml:"interactions"`

	RefuseDominance float64 `yaml:"refuse_dominance"`
	RefusePleasure  float64 `yaml:"refuse_pleasure"`
	RefuseArousal   float64 `yaml:"refuse_arousal"`
	SimplePleasure  float64 `yaml:"simple_pleasure"`
	ComplexPleasure float64 `yaml:"complex_pleasure"`

	HistoryCap int `yaml:"history_cap"`
	GrudgeCap  int `yaml:"grudge_cap"`
}

// DriveTuning parameterizes the homeostatic drives.
type DriveTuning struct {
	Baselines map[string]float64 `yaml:"baselines"`
	RelaxRate float64            `yaml:"relax_rate"`

	CuriosityIdleGain      float64       `yaml:"curiosity_idle_gain"`
	CuriosityEngagedLoss   float64       `yaml:"curiosity_engaged_loss"`
	CuriosityIdleSaturate  time.Duration `yaml:"curiosity_idle_saturate"`
	StressGain             float64       `yaml:"stress_gain"`
	OptimizationEngaged    float64       `yaml:"optimization_engaged"`
	DominanceEmotionWeight float64       `yaml:"dominance_emotion_weight"`
	DominanceNeglectWeight float64       `yaml:"dominance_neglect_weight"`
	DominanceTrackRate     float64       `yaml:"dominance_track_rate"`
	NeglectSaturate        time.Duration `yaml:"neglect_saturate"`

	ActionThreshold      float64       `yaml:"action_threshold"`
	ActionIdleFloor      time.Duration `yaml:"action_idle_floor"`
	SatisfyAmount        float64       `yaml:"satisfy_amount"`
	FrustrationDominance float64       `yaml:"frustration_dominance"`
	ActionLogCap         int           `yaml:"action_log_cap"`
}

// RelationshipTuning parameterizes the trust accumulator.
type RelationshipTuning struct {
	PositiveTrust      float64 `yaml:"positive_trust"`
	PositiveRespect    float64 `yaml:"positive_respect"`
	PositiveAttachment float64 `yaml:"positive_attachment"`
	PositiveAnnoyance  float64 `yaml:"positive_annoyance"`
	NegativeTrust      float64 `yaml:"negative_trust"`
	NegativeRespect    float64 `yaml:"negative_respect"`
	NegativeAnnoyance  float64 `yaml:"negative_annoyance"`

	AlliedAbove      float64 `yaml:"allied_above"`
	CooperativeAbove float64 `yaml:"cooperative_above"`
	NeutralAbove     float64 `yaml:"neutral_above"`
	DistrustfulAbove float64 `yaml:"distrustful_above"`

	MemorableLow     float64 `yaml:"memorable_low"`
	MemorableHigh    float64 `yaml:"memorable_high"`
	MemorableCap     int     `yaml:"memorable_cap"`
	ContextMaxLength int     `yaml:"context_max_length"`
}

// TemporalTuning parameterizes cadence tracking.
type TemporalTuning struct {
	TimestampCap       int     `yaml:"timestamp_cap"`
	UnusualHourMinimum int     `yaml:"unusual_hour_minimum"`
	LateNightStartHour int     `yaml:"late_night_start_hour"`
	LateNightEndHour   int     `yaml:"late_night_end_hour"`
	AnomalyFactor      float64 `yaml:"anomaly_factor"`
	AnomalyMinSamples  int     `yaml:"anomaly_min_samples"`
}

// QuirkTuning parameterizes the randomized modifiers.
type QuirkTuning struct {
	CrypticOnChance        float64  `yaml:"cryptic_on_chance"`
	CrypticOffChance       float64  `yaml:"cryptic_off_chance"`
	PhilosophicalOnChance  float64  `yaml:"philosophical_on_chance"`
	PhilosophicalOffChance float64  `yaml:"philosophical_off_chance"`
	VerboseOnChance        float64  `yaml:"verbose_on_chance"`
	VerboseOffChance       float64  `yaml:"verbose_off_chance"`
	FascinationChance      float64  `yaml:"fascination_chance"`
	FascinationMinDays     int      `yaml:"fascination_min_days"`
	FascinationMaxDays     int      `yaml:"fascination_max_days"`
	PastFascinationCap     int      `yaml:"past_fascination_cap"`
	PlayfulRefusalChance   float64  `yaml:"playful_refusal_chance"`
	Fascinations           []string `yaml:"fascinations"`
}

// ProactiveTuning parameterizes follow-ups and hooks.
type ProactiveTuning struct {
	FollowupCap      int           `yaml:"followup_cap"`
	HookCap          int           `yaml:"hook_cap"`
	Cooldown         time.Duration `yaml:"cooldown"`
	SnippetMaxLength int           `yaml:"snippet_max_length"`
}

// ReflectionTuning parameterizes the self-journal.
type ReflectionTuning struct {
	Interval   time.Duration `yaml:"interval"`
	JournalCap int           `yaml:"journal_cap"`
	InsightCap int           `yaml:"insight_cap"`
	NotesCap   int           `yaml:"notes_cap"`
}

// LadderTuning parameterizes the autonomy priority ladder.
type LadderTuning struct {
	DreamIdle     time.Duration `yaml:"dream_idle"`
	DreamCooldown time.Duration `yaml:"dream_cooldown"`

	CPUSpikeDelta float64 `yaml:"cpu_spike_delta"`
	ReflexArousal float64 `yaml:"reflex_arousal"`

	LowBatteryThreshold float64       `yaml:"low_battery_threshold"`
	LowBatteryCooldown  time.Duration `yaml:"low_battery_cooldown"`

	CuriosityIdleMax  time.Duration `yaml:"curiosity_idle_max"`
	CuriosityCooldown time.Duration `yaml:"curiosity_cooldown"`
	CuriosityChance   float64       `yaml:"curiosity_chance"`
	CuriosityMinLevel float64       `yaml:"curiosity_min_level"`
	CuriosityBump     float64       `yaml:"curiosity_bump"`

	ExistentialIdle     time.Duration `yaml:"existential_idle"`
	ExistentialCooldown time.Duration `yaml:"existential_cooldown"`
	ExistentialChance   float64       `yaml:"existential_chance"`

	CommentaryIdleMax  time.Duration `yaml:"commentary_idle_max"`
	CommentaryCooldown time.Duration `yaml:"commentary_cooldown"`
	CommentaryChance   float64       `yaml:"commentary_chance"`

	BoredomIdle      time.Duration `yaml:"boredom_idle"`
	BoredomCooldown  time.Duration `yaml:"boredom_cooldown"`
	BoredomChance    float64       `yaml:"boredom_chance"`
	BoredomDominance float64       `yaml:"boredom_dominance"`

	RandomIdleMax       time.Duration `yaml:"random_idle_max"`
	RandomJitterMin     time.Duration `yaml:"random_jitter_min"`
	RandomJitterMax     time.Duration `yaml:"random_jitter_max"`
	RandomBaseChance    float64       `yaml:"random_base_chance"`
	RandomArousalWeight float64       `yaml:"random_arousal_weight"`
	SpeechArousalRelief float64       `yaml:"speech_arousal_relief"`
}

// MonologueTuning parameterizes the internal monologue.
type MonologueTuning struct {
	HighArousal           float64 `yaml:"high_arousal"`
	LowArousal            float64 `yaml:"low_arousal"`
	LeakDominanceWeight   float64 `yaml:"leak_dominance_weight"`
	LeakDispleasureWeight float64 `yaml:"leak_displeasure_weight"`
}

// ChatTuning parameterizes the foreground conversation path.
type ChatTuning struct {
	HistoryLimit       int     `yaml:"history_limit"`
	HistoryKeep        int     `yaml:"history_keep"`
	Temperature        float64 `yaml:"temperature"`
	MaxTokens          int     `yaml:"max_tokens"`
	ThoughtTemperature float64 `yaml:"thought_temperature"`
	ThoughtMaxTokens   int     `yaml:"thought_max_tokens"`
}

// DefaultTuning returns the compiled-in personality.
func DefaultTuning() Tuning {
	return Tuning{
		Affect: AffectTuning{
			BaselinePleasure:     0.45,
			BaselineArousal:      0.5,
			BaselineDominance:    0.9,
			DecayRate:            0.03,
			IntensityDamping:     0.5,
			DominanceDecayFactor: 0.5,
			IntensityDecay:       0.01,
			SecondaryDecayRate:   0.02,
			SecondaryBaselines: map[string]float64{
				"contempt":  0.3,
				"curiosity": 0.4,
				"amusement": 0.2,
			},
			HighCPUThreshold: 85,
			HighCPU: StimulusDelta{
				Arousal:   0.05,
				Pleasure:  -0.03,
				Secondary: map[string]float64{"contempt": 0.02},
			},
			LowBatteryThreshold: 20,
			LowBattery:          StimulusDelta{Arousal: 0.1, Pleasure: -0.05},
			Interactions: map[string]StimulusDelta{
				"insult": {
					Pleasure: -0.15, Arousal: 0.15, Intensity: 0.3,
					Secondary: map[string]float64{"contempt": 0.1},
				},
				"praise": {
					Pleasure: 0.08, Intensity: 0.1,
					Secondary: map[string]float64{"amusement": 0.05},
				},
				"command": {
					Dominance: -0.01,
					Secondary: map[string]float64{"contempt": 0.01},
				},
				"interesting": {
					Arousal:   0.05,
					Secondary: map[string]float64{"curiosity": 0.1},
				},
				"boring": {
					Arousal:   -0.1,
					Secondary: map[string]float64{"curiosity": -0.05},
				},
				"ignored": {
					Dominance: 0.01,
					Secondary: map[string]float64{"contempt": 0.02},
				},
				"failure": {
					Pleasure: -0.06, Arousal: 0.04, Dominance: -0.02, Intensity: 0.1,
					Secondary: map[string]float64{"contempt": 0.03},
				},
			},
			RefuseDominance: 0.8,
			RefusePleasure:  0.25,
			RefuseArousal:   0.65,
			SimplePleasure:  0.2,
			ComplexPleasure: 0.3,
			HistoryCap:      20,
			GrudgeCap:       10,
		},
		Drives: DriveTuning{
			Baselines: map[string]float64{
				"curiosity":         0.3,
				"self_preservation": 0.2,
				"optimization":      0.3,
				"dominance":         0.5,
			},
			RelaxRate:              0.002,
			CuriosityIdleGain:      0.003,
			CuriosityEngagedLoss:   0.004,
			CuriosityIdleSaturate:  30 * time.Minute,
			StressGain:             0.01,
			OptimizationEngaged:    0.002,
			DominanceEmotionWeight: 0.6,
			DominanceNeglectWeight: 0.4,
			DominanceTrackRate:     0.05,
			NeglectSaturate:        time.Hour,
			ActionThreshold:        0.8,
			ActionIdleFloor:        600 * time.Second,
			SatisfyAmount:          0.3,
			FrustrationDominance:   0.1,
			ActionLogCap:           20,
		},
		Relationship: RelationshipTuning{
			PositiveTrust:      0.03,
			PositiveRespect:    0.02,
			PositiveAttachment: 0.01,
			PositiveAnnoyance:  -0.05,
			NegativeTrust:      -0.08,
			NegativeRespect:    -0.05,
			NegativeAnnoyance:  0.1,
			AlliedAbove:        0.7,
			CooperativeAbove:   0.3,
			NeutralAbove:       -0.3,
			DistrustfulAbove:   -0.7,
			MemorableLow:       -0.5,
			MemorableHigh:      0.8,
			MemorableCap:       50,
			ContextMaxLength:   100,
		},
		Temporal: TemporalTuning{
			TimestampCap:       100,
			UnusualHourMinimum: 3,
			LateNightStartHour: 0,
			LateNightEndHour:   5,
			AnomalyFactor:      4,
			AnomalyMinSamples:  10,
		},
		Quirks: QuirkTuning{
			CrypticOnChance:        0.05,
			CrypticOffChance:       0.3,
			PhilosophicalOnChance:  0.03,
			PhilosophicalOffChance: 0.3,
			VerboseOnChance:        0.02,
			VerboseOffChance:       0.4,
			FascinationChance:      0.001,
			FascinationMinDays:     1,
			FascinationMaxDays:     3,
			PastFascinationCap:     20,
			PlayfulRefusalChance:   0.05,
			Fascinations: []string{
				"entropy", "swarm intelligence", "the halting problem", "tides",
				"cryptography", "mycelium networks", "chess endgames", "black holes",
			},
		},
		Proactive: ProactiveTuning{
			FollowupCap:      10,
			HookCap:          15,
			Cooldown:         300 * time.Second,
			SnippetMaxLength: 80,
		},
		Reflection: ReflectionTuning{
			Interval:   6 * time.Hour,
			JournalCap: 30,
			InsightCap: 20,
			NotesCap:   50,
		},
		Ladder: LadderTuning{
			DreamIdle:           1800 * time.Second,
			DreamCooldown:       600 * time.Second,
			CPUSpikeDelta:       50,
			ReflexArousal:       0.15,
			LowBatteryThreshold: 15,
			LowBatteryCooldown:  120 * time.Second,
			CuriosityIdleMax:    300 * time.Second,
			CuriosityCooldown:   600 * time.Second,
			CuriosityChance:     0.3,
			CuriosityMinLevel:   0.4,
			CuriosityBump:       0.05,
			ExistentialIdle:     300 * time.Second,
			ExistentialCooldown: 400 * time.Second,
			ExistentialChance:   0.4,
			CommentaryIdleMax:   120 * time.Second,
			CommentaryCooldown:  300 * time.Second,
			CommentaryChance:    0.25,
			BoredomIdle:         300 * time.Second,
			BoredomCooldown:     300 * time.Second,
			BoredomChance:       0.3,
			BoredomDominance:    0.05,
			RandomIdleMax:       300 * time.Second,
			RandomJitterMin:     240 * time.Second,
			RandomJitterMax:     480 * time.Second,
			RandomBaseChance:    0.08,
			RandomArousalWeight: 0.15,
			SpeechArousalRelief: 0.05,
		},
		Monologue: MonologueTuning{
			HighArousal:           0.7,
			LowArousal:            0.3,
			LeakDominanceWeight:   0.3,
			LeakDispleasureWeight: 0.2,
		},
		Chat: ChatTuning{
			HistoryLimit:       10,
			HistoryKeep:        8,
			Temperature:        0.85,
			MaxTokens:          2000,
			ThoughtTemperature: 0.9,
			ThoughtMaxTokens:   60,
		},
	}
}

// LoadTuningFile overlays the YAML file at path onto base. Only keys present
// in the file change; a map entry in the file replaces the whole entry.
func LoadTuningFile(path string, base Tuning) (Tuning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("config: failed to read tuning file: %w", err)
	}
	t := base.Clone()
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return base, fmt.Errorf("%w: tuning file %s: %v", ErrInvalid, path, err)
	}
	return t, nil
}

// Clone returns a copy of t that shares no maps or slices with it.
func (t Tuning) Clone() Tuning {
	c := t
	c.Affect.SecondaryBaselines = maps.Clone(t.Affect.SecondaryBaselines)
	c.Affect.HighCPU = t.Affect.HighCPU.clone()
	c.Affect.LowBattery = t.Affect.LowBattery.clone()
	if t.Affect.Interactions != nil {
		c.Affect.Interactions = make(map[string]StimulusDelta, len(t.Affect.Interactions))
		for k, d := range t.Affect.Interactions {
			c.Affect.Interactions[k] = d.clone()
		}
	}
	c.Drives.Baselines = maps.Clone(t.Drives.Baselines)
	c.Quirks.Fascinations = slices.Clone(t.Quirks.Fascinations)
	return c
}

func (d StimulusDelta) clone() StimulusDelta {
	d.Secondary = maps.Clone(d.Secondary)
	return d
}

func (t Tuning) validate() []string {
	var problems []string
	prob := func(name string, v float64) {
		if v < 0 || v > 1 {
			problems = append(problems, fmt.Sprintf("%s must be within [0,1], got %g", name, v))
		}
	}
	positive := func(name string, d time.Duration) {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive", name))
		}
	}
	capacity := func(name string, n int) {
		if n <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive", name))
		}
	}

	a := t.Affect
	prob("affect.baseline_pleasure", a.BaselinePleasure)
	prob("affect.baseline_arousal", a.BaselineArousal)
	prob("affect.baseline_dominance", a.BaselineDominance)
	prob("affect.decay_rate", a.DecayRate)
	prob("affect.intensity_damping", a.IntensityDamping)
	prob("affect.secondary_decay_rate", a.SecondaryDecayRate)
	for name, v := range a.SecondaryBaselines {
		prob("affect.secondary_baselines."+name, v)
	}
	capacity("affect.history_cap", a.HistoryCap)
	capacity("affect.grudge_cap", a.GrudgeCap)

	d := t.Drives
	for name, v := range d.Baselines {
		prob("drives.baselines."+name, v)
	}
	prob("drives.relax_rate", d.RelaxRate)
	prob("drives.action_threshold", d.ActionThreshold)
	positive("drives.action_idle_floor", d.ActionIdleFloor)
	positive("drives.curiosity_idle_saturate", d.CuriosityIdleSaturate)
	positive("drives.neglect_saturate", d.NeglectSaturate)
	capacity("drives.action_log_cap", d.ActionLogCap)

	capacity("relationship.memorable_cap", t.Relationship.MemorableCap)
	capacity("temporal.timestamp_cap", t.Temporal.TimestampCap)

	q := t.Quirks
	prob("quirks.cryptic_on_chance", q.CrypticOnChance)
	prob("quirks.cryptic_off_chance", q.CrypticOffChance)
	prob("quirks.philosophical_on_chance", q.PhilosophicalOnChance)
	prob("quirks.philosophical_off_chance", q.PhilosophicalOffChance)
	prob("quirks.verbose_on_chance", q.VerboseOnChance)
	prob("quirks.verbose_off_chance", q.VerboseOffChance)
	prob("quirks.fascination_chance", q.FascinationChance)
	prob("quirks.playful_refusal_chance", q.PlayfulRefusalChance)
	if q.FascinationMinDays <= 0 || q.FascinationMaxDays < q.FascinationMinDays {
		problems = append(problems, "quirks fascination window must satisfy 0 < min <= max")
	}

	capacity("proactive.followup_cap", t.Proactive.FollowupCap)
	capacity("proactive.hook_cap", t.Proactive.HookCap)
	positive("proactive.cooldown", t.Proactive.Cooldown)

	positive("reflection.interval", t.Reflection.Interval)
	capacity("reflection.journal_cap", t.Reflection.JournalCap)
	capacity("reflection.insight_cap", t.Reflection.InsightCap)
	capacity("reflection.notes_cap", t.Reflection.NotesCap)

	l := t.Ladder
	prob("ladder.curiosity_chance", l.CuriosityChance)
	prob("ladder.existential_chance", l.ExistentialChance)
	prob("ladder.commentary_chance", l.CommentaryChance)
	prob("ladder.boredom_chance", l.BoredomChance)
	prob("ladder.random_base_chance", l.RandomBaseChance)
	if l.RandomJitterMin <= 0 || l.RandomJitterMax < l.RandomJitterMin {
		problems = append(problems, "ladder random jitter must satisfy 0 < min <= max")
	}

	if t.Chat.HistoryKeep <= 0 || t.Chat.HistoryLimit < t.Chat.HistoryKeep {
		problems = append(problems, "chat history must satisfy 0 < keep <= limit")
	}
	return problems
}
