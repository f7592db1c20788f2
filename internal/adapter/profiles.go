package adapter

// StyleProfile describes one coaching style: trait intensities feed
// scoring, the transform fields drive text adaptation.
type StyleProfile struct {
	// ID names the style.
	ID string

	// Traits are intensity values in [0,1] (warmth, directness,
	// detail, energy, patience). Compared against user signals by the
	// decision engine.
	Traits map[string]float64

	// Tone describes the voice, for observability and templates.
	Tone string

	// Templates are message skeletons with a {message} slot.
	Templates []string

	// Softeners substitute harsh phrasing when the style softens tone.
	Softeners map[string]string

	// Strengtheners substitute tentative phrasing when the style
	// strengthens tone.
	Strengtheners map[string]string

	// Vocabulary substitutes domain wording wholesale.
	Vocabulary map[string]string

	// Emoji are appended when the style uses them; an empty list
	// strips emoji instead.
	Emoji []string

	// SplitSentences breaks compound sentences into short ones.
	SplitSentences bool
}

// BuiltinStyles returns the five stock coaching styles.
func BuiltinStyles() []StyleProfile {
	return []StyleProfile{
		{
			ID:   "encouraging",
			Tone: "warm, celebratory",
			Traits: map[string]float64{
				"warmth": 0.9, "directness": 0.3, "detail": 0.4, "energy": 0.8, "patience": 0.7,
			},
			Templates: []string{
				"You're doing great! {message}",
				"{message} Keep that momentum going!",
			},
			Softeners: map[string]string{
				"you must":    "you might want to",
				"you failed":  "it didn't happen this time",
				"you should":  "you could",
				"don't":       "try not to",
				"never":       "rarely",
			},
			Vocabulary: map[string]string{
				"task": "win", "problem": "challenge", "missed": "skipped",
			},
			Emoji: []string{"🎉", "💪", "⭐"},
		},
		{
			ID:   "direct",
			Tone: "concise, no-nonsense",
			Traits: map[string]float64{
				"warmth": 0.3, "directness": 0.95, "detail": 0.3, "energy": 0.6, "patience": 0.3,
			},
			Templates: []string{
				"{message}",
				"Action needed: {message}",
			},
			Strengtheners: map[string]string{
				"you might want to": "you should",
				"perhaps":           "",
				"maybe":             "",
				"you could":         "you should",
				"try to":            "",
			},
			Vocabulary: map[string]string{
				"challenge": "problem",
			},
			SplitSentences: true,
		},
		{
			ID:   "analytical",
			Tone: "precise, data-forward",
			Traits: map[string]float64{
				"warmth": 0.4, "directness": 0.7, "detail": 0.95, "energy": 0.4, "patience": 0.6,
			},
			Templates: []string{
				"Based on your data: {message}",
				"{message} The numbers back this up.",
			},
			Vocabulary: map[string]string{
				"good": "above your baseline", "bad": "below your baseline", "a lot": "significantly",
			},
		},
		{
			ID:   "playful",
			Tone: "light, humorous",
			Traits: map[string]float64{
				"warmth": 0.8, "directness": 0.4, "detail": 0.3, "energy": 0.95, "patience": 0.5,
			},
			Templates: []string{
				"Plot twist: {message}",
				"{message} No pressure though!",
			},
			Softeners: map[string]string{
				"you must":   "how about you",
				"you should": "wanna",
			},
			Vocabulary: map[string]string{
				"exercise": "move that body", "streak": "hot streak",
			},
			Emoji: []string{"😄", "🚀", "✨"},
		},
		{
			ID:   "gentle",
			Tone: "calm, low-pressure",
			Traits: map[string]float64{
				"warmth": 0.85, "directness": 0.2, "detail": 0.5, "energy": 0.3, "patience": 0.95,
			},
			Templates: []string{
				"Whenever you're ready: {message}",
				"{message} One small step is enough.",
			},
			Softeners: map[string]string{
				"you must":   "when it feels right, you could",
				"you should": "you might",
				"now":        "when you can",
				"you failed": "it's okay that it slipped",
			},
		},
	}
}

// ContentItem is one selectable content piece.
type ContentItem struct {
	// ID names the item.
	ID string

	// Features are matching attributes in the decision engine's scale.
	Features map[string]float64

	// Body is the raw message text before style transformation.
	Body string

	// Metadata carries opaque caller data.
	Metadata map[string]string
}
