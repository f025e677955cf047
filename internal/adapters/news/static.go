package news

import (
	"context"
	"time"

	"github.com/selivandex/gold-advisor/pkg/models"
)

// staticHeadlines is the demonstration feed used when no live news source
// is configured or reachable.
var staticHeadlines = []string{
	"Gold prices surge as inflation concerns mount",
	"Federal Reserve hints at rate cuts, boosting gold demand",
	"Geopolitical tensions drive safe-haven gold buying",
	"Dollar weakness supports gold price rally",
	"Gold futures fall on profit-taking after recent gains",
	"Strong economic data weighs on gold prices",
	"Gold consolidates near resistance levels",
	"Central bank buying supports gold market",
	"Gold prices stable amid mixed economic signals",
	"Technical analysis suggests gold may break higher",
}

// StaticProvider serves a fixed set of sample headlines. It is the
// degradation target for every live news source and the default in tests.
type StaticProvider struct {
	now func() time.Time
}

// NewStaticProvider creates new static news provider
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{now: time.Now}
}

func (p *StaticProvider) GetName() string {
	return "StaticNews"
}

// Fetch returns up to limit sample records, spaced one hour apart.
func (p *StaticProvider) Fetch(ctx context.Context, limit int) ([]models.SentimentRecord, error) {
	if limit <= 0 || limit > len(staticHeadlines) {
		limit = len(staticHeadlines)
	}

	now := p.now().UTC()
	records := make([]models.SentimentRecord, 0, limit)
	for i := 0; i < limit; i++ {
		records = append(records, models.SentimentRecord{
			Date: now.Add(-time.Duration(i) * time.Hour),
			Text: staticHeadlines[i],
		})
	}
	return records, nil
}
