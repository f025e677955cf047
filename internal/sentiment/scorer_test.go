package sentiment

import (
	"testing"

	"github.com/selivandex/gold-advisor/pkg/models"
)

// synthetic lexicon keeps keyword tests independent of the shipped gold sets
func testLexicon() Lexicon {
	return Lexicon{
		Positive: []string{"good", "great"},
		Negative: []string{"bad", "awful"},
		Neutral:  []string{"flat"},
	}
}

func TestScorer_KeywordPolarity(t *testing.T) {
	scorer := NewScorer(testLexicon())

	tests := []struct {
		name      string
		text      string
		wantScore float64
		wantLabel models.SentimentStrength
	}{
		{"all positive", "good great outlook", 1.0, models.SentimentVeryPositive},
		{"all negative", "bad awful day", -1.0, models.SentimentVeryNegative},
		{"mixed", "good but bad", 0.0, models.SentimentNeutral},
		{"diluted by neutral", "good and flat", 0.5, models.SentimentVeryPositive},
		{"no hits", "nothing recognizable here", 0.0, models.SentimentNeutral},
		{"empty", "", 0.0, models.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, label := scorer.Score(tt.text)
			if score != tt.wantScore {
				t.Errorf("Score = %.3f, want %.3f", score, tt.wantScore)
			}
			if label != tt.wantLabel {
				t.Errorf("Label = %s, want %s", label, tt.wantLabel)
			}
		})
	}
}

func TestScorer_PureFunction(t *testing.T) {
	scorer := NewGoldScorer()

	texts := []string{
		"Gold prices surge as inflation concerns mount",
		"Strong economic data weighs on gold prices",
		"Gold consolidates near resistance levels",
		"",
	}

	for _, text := range texts {
		s1, l1 := scorer.Score(text)
		s2, l2 := scorer.Score(text)
		if s1 != s2 || l1 != l2 {
			t.Errorf("Score not deterministic for %q: (%.4f,%s) vs (%.4f,%s)",
				text, s1, l1, s2, l2)
		}
		if s1 < -1 || s1 > 1 {
			t.Errorf("Polarity out of range for %q: %.4f", text, s1)
		}
	}
}

func TestScorer_BlendedDirection(t *testing.T) {
	scorer := NewGoldScorer()

	bullish, label := scorer.Score("Gold prices surge on safe haven demand, rally continues")
	if bullish <= 0 {
		t.Errorf("Expected positive polarity for bullish text, got %.4f", bullish)
	}
	if !label.Bullish() {
		t.Errorf("Expected bullish label, got %s", label)
	}

	bearish, label := scorer.Score("Gold falls as dollar strong, bearish selloff and losses deepen")
	if bearish >= 0 {
		t.Errorf("Expected negative polarity for bearish text, got %.4f", bearish)
	}
	if !label.Bearish() {
		t.Errorf("Expected bearish label, got %s", label)
	}
}

func TestClassify_Thresholds(t *testing.T) {
	tests := []struct {
		polarity float64
		want     models.SentimentStrength
	}{
		{0.31, models.SentimentVeryPositive},
		{0.3, models.SentimentPositive},
		{0.11, models.SentimentPositive},
		{0.1, models.SentimentNeutral},
		{0.0, models.SentimentNeutral},
		{-0.1, models.SentimentNeutral},
		{-0.11, models.SentimentNegative},
		{-0.3, models.SentimentNegative},
		{-0.31, models.SentimentVeryNegative},
	}

	for _, tt := range tests {
		if got := Classify(tt.polarity); got != tt.want {
			t.Errorf("Classify(%.2f) = %s, want %s", tt.polarity, got, tt.want)
		}
	}
}
