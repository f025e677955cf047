package advisor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/selivandex/gold-advisor/pkg/models"
)

// Repository persists the daily series, recommendations and model states
// in Postgres. Persistence is a collaborator concern; the core pipeline
// never calls this directly.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new advisor repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// UpsertDailySeries writes the aligned series, replacing rows that already
// exist for a date.
func (r *Repository) UpsertDailySeries(ctx context.Context, rows []models.DailySeriesRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO daily_series (date, price, sentiment_score, headline_summary, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (date) DO UPDATE SET
			price = EXCLUDED.price,
			sentiment_score = EXCLUDED.sentiment_score,
			headline_summary = EXCLUDED.headline_summary,
			updated_at = now()
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.Date, row.Price, row.SentimentScore, row.HeadlineSummary); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert series row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadDailySeries returns the stored series ordered by date ascending.
func (r *Repository) LoadDailySeries(ctx context.Context) ([]models.DailySeriesRow, error) {
	var rows []models.DailySeriesRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT date, price, sentiment_score, headline_summary
		FROM daily_series
		ORDER BY date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily series: %w", err)
	}
	return rows, nil
}

// SaveRecommendation appends one recommendation to the history.
func (r *Repository) SaveRecommendation(ctx context.Context, rec *models.Recommendation) error {
	reasoning, err := json.Marshal(rec.Reasoning)
	if err != nil {
		return fmt.Errorf("failed to marshal reasoning: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recommendations
			(action, confidence, reasoning, current_price, predicted_price,
			 price_change_pct, sentiment_score, price_trend, sentiment_strength, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		rec.Action, rec.Confidence, reasoning, rec.CurrentPrice, rec.PredictedPrice,
		rec.PriceChangePct, rec.SentimentScore, rec.PriceTrend, rec.SentimentStrength, rec.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save recommendation: %w", err)
	}
	return nil
}

// LatestRecommendation returns the most recent stored recommendation, or
// nil when none exists yet.
func (r *Repository) LatestRecommendation(ctx context.Context) (*models.Recommendation, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT action, confidence, reasoning, current_price, predicted_price,
		       price_change_pct, sentiment_score, price_trend, sentiment_strength, generated_at
		FROM recommendations
		ORDER BY generated_at DESC
		LIMIT 1
	`)

	var rec models.Recommendation
	var reasoning []byte
	err := row.Scan(
		&rec.Action, &rec.Confidence, &reasoning, &rec.CurrentPrice, &rec.PredictedPrice,
		&rec.PriceChangePct, &rec.SentimentScore, &rec.PriceTrend, &rec.SentimentStrength, &rec.GeneratedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest recommendation: %w", err)
	}

	if err := json.Unmarshal(reasoning, &rec.Reasoning); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reasoning: %w", err)
	}
	return &rec, nil
}

// SaveModelState stores an exported forecaster blob with its metrics.
func (r *Repository) SaveModelState(ctx context.Context, windowSize int, state []byte, valRMSE, valMAE float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO model_states (window_size, state, val_rmse, val_mae)
		VALUES ($1, $2, $3, $4)
	`, windowSize, state, valRMSE, valMAE)
	if err != nil {
		return fmt.Errorf("failed to save model state: %w", err)
	}
	return nil
}

// LatestModelState returns the most recent stored model blob for the given
// window size, or nil when none exists.
func (r *Repository) LatestModelState(ctx context.Context, windowSize int) ([]byte, error) {
	var state []byte
	err := r.db.GetContext(ctx, &state, `
		SELECT state FROM model_states
		WHERE window_size = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, windowSize)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model state: %w", err)
	}
	return state, nil
}
