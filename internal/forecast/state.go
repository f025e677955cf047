package forecast

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/selivandex/gold-advisor/pkg/models"
)

// stateBlob is the persisted form of a fitted model: the forest, both
// scaler bounds and the window size the model was trained with.
type stateBlob struct {
	WindowSize      int
	Forest          *Forest
	PriceScaler     MinMaxScaler
	SentimentScaler MinMaxScaler
}

// ExportState serializes the current fitted model into an opaque blob.
func (f *Forecaster) ExportState() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.state == nil {
		return nil, fmt.Errorf("%w: nothing to export", models.ErrNotTrained)
	}

	blob := stateBlob{
		WindowSize:      f.state.WindowSize,
		Forest:          f.state.Forest,
		PriceScaler:     f.state.PriceScaler,
		SentimentScaler: f.state.SentimentScaler,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&blob); err != nil {
		return nil, fmt.Errorf("failed to encode model state: %w", err)
	}
	return buf.Bytes(), nil
}

// ImportState loads a previously exported blob and swaps it in atomically.
// A blob trained with a different window size is rejected: silently serving
// it would mis-shape every feature vector.
func (f *Forecaster) ImportState(data []byte) error {
	var blob stateBlob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&blob); err != nil {
		return fmt.Errorf("failed to decode model state: %w", err)
	}

	if blob.WindowSize != f.cfg.WindowSize {
		return fmt.Errorf("%w: state has window %d, forecaster configured for %d",
			models.ErrWindowSizeMismatch, blob.WindowSize, f.cfg.WindowSize)
	}
	if blob.Forest == nil || len(blob.Forest.Trees) == 0 {
		return fmt.Errorf("%w: state blob contains no trees", models.ErrNoData)
	}

	state := &modelState{
		Forest:          blob.Forest,
		PriceScaler:     blob.PriceScaler,
		SentimentScaler: blob.SentimentScaler,
		WindowSize:      blob.WindowSize,
	}

	f.mu.Lock()
	f.state = state
	f.mu.Unlock()

	return nil
}
