package sentiment

import "strings"

// GoldLexicon returns the default keyword sets for the gold market.
// Note the safe-haven inversion: crisis, fear and uncertainty are bullish
// for gold even though they read as negative for risk assets.
func GoldLexicon() Lexicon {
	return Lexicon{
		Positive: []string{
			"rise", "gain", "increase", "surge", "rally", "bullish", "strong",
			"positive", "optimistic", "growth", "demand", "inflation", "safe haven",
			"uncertainty", "crisis", "fear", "volatility", "dollar weak", "fed cut",
			"stimulus", "quantitative easing", "recession", "geopolitical",
		},
		Negative: []string{
			"fall", "drop", "decline", "plunge", "crash", "bearish", "weak",
			"negative", "pessimistic", "loss", "supply", "deflation", "dollar strong",
			"fed hike", "rate increase", "tapering", "recovery", "stability", "peace",
		},
		Neutral: []string{
			"stable", "unchanged", "flat", "sideways", "consolidation", "range",
			"technical", "analysis", "chart", "support", "resistance", "trend",
		},
	}
}

// weightedLexicon is the general-purpose word-weight polarity scorer used
// in blended mode: per-word weights summed and normalized by word count,
// clamped to [-1, 1].
type weightedLexicon struct {
	positive map[string]float64
	negative map[string]float64
}

func (w *weightedLexicon) polarity(text string) float64 {
	if text == "" {
		return 0
	}

	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}

	var score float64
	matched := 0

	for _, word := range words {
		word = strings.Trim(word, ".,!?;:")

		if weight, ok := w.positive[word]; ok {
			score += weight
			matched++
		}
		if weight, ok := w.negative[word]; ok {
			score -= weight
			matched++
		}
	}

	if matched == 0 {
		return 0
	}

	normalized := score / float64(len(words))
	if normalized > 1 {
		normalized = 1
	} else if normalized < -1 {
		normalized = -1
	}
	return normalized
}

func defaultWeightedLexicon() *weightedLexicon {
	return &weightedLexicon{
		positive: map[string]float64{
			"bullish":    1.0,
			"rally":      0.9,
			"surge":      0.8,
			"soar":       0.8,
			"rebound":    0.7,
			"record":     0.7,
			"gain":       0.6,
			"gains":      0.6,
			"haven":      0.6,
			"demand":     0.6,
			"stimulus":   0.6,
			"inflation":  0.6,
			"rise":       0.5,
			"rises":      0.5,
			"climb":      0.5,
			"higher":     0.5,
			"positive":   0.5,
			"optimistic": 0.5,
			"buying":     0.5,
			"accumulate": 0.5,
		},
		negative: map[string]float64{
			"bearish":     1.0,
			"crash":       1.0,
			"plunge":      0.8,
			"slump":       0.8,
			"selloff":     0.7,
			"tapering":    0.7,
			"loss":        0.7,
			"losses":      0.7,
			"fall":        0.6,
			"falls":       0.6,
			"drop":        0.6,
			"drops":       0.6,
			"decline":     0.6,
			"weak":        0.6,
			"hike":        0.6,
			"lower":       0.5,
			"negative":    0.5,
			"pessimistic": 0.5,
			"selling":     0.5,
			"outflow":     0.5,
		},
	}
}
