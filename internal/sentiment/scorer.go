// Package sentiment scores free text into a polarity in [-1, 1] and a
// categorical strength label. Scoring is a pure function of the input
// text: no network calls, no state.
package sentiment

import (
	"strings"

	"github.com/selivandex/gold-advisor/pkg/models"
)

// Blend weights when combining the general lexical score with the
// keyword-set score.
const (
	generalWeight = 0.6
	keywordWeight = 0.4
)

// Lexicon holds the three disjoint keyword sets driving the keyword
// heuristic. The sets are configuration data, swappable per market.
type Lexicon struct {
	Positive []string
	Negative []string
	Neutral  []string
}

// Scorer maps text to polarity and strength. When blended mode is on, the
// keyword score is mixed with a weighted-word lexical score; both parts are
// deterministic, so Score stays a pure function.
type Scorer struct {
	lexicon  Lexicon
	weighted *weightedLexicon
	blended  bool
}

// NewScorer creates a keyword-only scorer with the given lexicon.
func NewScorer(lexicon Lexicon) *Scorer {
	return &Scorer{lexicon: lexicon}
}

// NewBlendedScorer creates a scorer that blends the general weighted-word
// polarity (weight 0.6) with the keyword polarity (weight 0.4).
func NewBlendedScorer(lexicon Lexicon) *Scorer {
	return &Scorer{
		lexicon:  lexicon,
		weighted: defaultWeightedLexicon(),
		blended:  true,
	}
}

// NewGoldScorer creates a blended scorer with the default gold-market lexicon.
func NewGoldScorer() *Scorer {
	return NewBlendedScorer(GoldLexicon())
}

// Score returns the polarity of text in [-1, 1] and its strength label.
// Text with no recognized keywords scores exactly 0 (neutral).
func (s *Scorer) Score(text string) (float64, models.SentimentStrength) {
	polarity := s.keywordPolarity(text)

	if s.blended {
		polarity = generalWeight*s.weighted.polarity(text) + keywordWeight*polarity
	}

	return polarity, Classify(polarity)
}

// keywordPolarity computes (pos-neg)/(pos+neg+neu) over substring hits from
// the three keyword sets. Zero hits yields exactly 0.
func (s *Scorer) keywordPolarity(text string) float64 {
	lower := strings.ToLower(text)

	pos := countHits(lower, s.lexicon.Positive)
	neg := countHits(lower, s.lexicon.Negative)
	neu := countHits(lower, s.lexicon.Neutral)

	total := pos + neg + neu
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}

func countHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

// Classify buckets a polarity into its strength label. The recommendation
// engine depends on these exact thresholds.
func Classify(polarity float64) models.SentimentStrength {
	switch {
	case polarity > 0.3:
		return models.SentimentVeryPositive
	case polarity > 0.1:
		return models.SentimentPositive
	case polarity < -0.3:
		return models.SentimentVeryNegative
	case polarity < -0.1:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}
