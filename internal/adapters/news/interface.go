package news

import (
	"context"

	"github.com/selivandex/gold-advisor/pkg/models"
)

// Provider supplies raw gold news records for sentiment scoring. Absence
// of records for a date is valid; downstream fills neutral.
type Provider interface {
	// Fetch returns up to limit recent records, newest first.
	Fetch(ctx context.Context, limit int) ([]models.SentimentRecord, error)

	// GetName returns provider name
	GetName() string
}
