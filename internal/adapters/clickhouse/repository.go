package clickhouse

import (
	"context"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/gold-advisor/internal/adapters/config"
	"github.com/selivandex/gold-advisor/pkg/logger"
	"github.com/selivandex/gold-advisor/pkg/models"
)

// Repository appends forecast history to ClickHouse for later accuracy
// analysis. Every horizon step is one row, including the sentiment
// fill-in that was used to produce it.
type Repository struct {
	db *sqlx.DB
}

// New creates new ClickHouse repository
func New(cfg *config.ClickHouseConfig) (*Repository, error) {
	db, err := sqlx.Open("clickhouse", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	logger.Info("clickhouse connection established",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
	)

	return NewWithDB(db), nil
}

// NewWithDB creates a repository over an existing connection.
func NewWithDB(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Close closes the connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveForecast writes one forecast run: a row per horizon step.
func (r *Repository) SaveForecast(ctx context.Context, generatedAt time.Time, result *models.ForecastResult) error {
	if result == nil || len(result.HorizonEstimates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stmt, err := tx.Preparex(`
		INSERT INTO forecast_history
		(generated_at, based_on_date, step, predicted_price, filled_sentiment)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for step, predicted := range result.HorizonEstimates {
		filled := 0.0
		if step < len(result.FilledSentiment) {
			filled = result.FilledSentiment[step]
		}
		if _, err := stmt.ExecContext(ctx, generatedAt, result.BasedOnDate, step+1, predicted, filled); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert forecast row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("saved forecast to clickhouse",
		zap.Int("steps", len(result.HorizonEstimates)),
	)
	return nil
}

// StepAccuracy is the mean absolute error of past step-1 forecasts against
// the actual prices that later materialized.
type StepAccuracy struct {
	Step     int     `db:"step"`
	Count    uint64  `db:"count"`
	MAE      float64 `db:"mae"`
	MeanPred float64 `db:"mean_pred"`
}

// ForecastAccuracy joins past forecasts against actual prices by target
// date and returns per-step error statistics.
func (r *Repository) ForecastAccuracy(ctx context.Context) ([]StepAccuracy, error) {
	var out []StepAccuracy
	err := r.db.SelectContext(ctx, &out, `
		SELECT
			f.step AS step,
			count() AS count,
			avg(abs(f.predicted_price - a.price)) AS mae,
			avg(f.predicted_price) AS mean_pred
		FROM forecast_history f
		INNER JOIN actual_prices a
			ON a.date = addDays(f.based_on_date, f.step)
		GROUP BY f.step
		ORDER BY f.step
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast accuracy: %w", err)
	}
	return out, nil
}

// SaveActualPrices records realized prices so ForecastAccuracy has a join
// target.
func (r *Repository) SaveActualPrices(ctx context.Context, points []models.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO actual_prices (date, price) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.Date, p.Price); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert price: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
