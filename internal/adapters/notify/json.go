package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/alejandrodnm/riskfolio/internal/domain"
)

// JSON implementa ports.Notifier escribiendo un documento JSON por evento.
// Es el formato de -format=json en la CLI.
type JSON struct {
	enc *json.Encoder
}

// NewJSONWriter crea un notificador JSON sobre w.
func NewJSONWriter(w io.Writer) *JSON {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &JSON{enc: enc}
}

func (j *JSON) NotifyRecommendation(_ context.Context, rec domain.Recommendation) error {
	if err := j.enc.Encode(rec); err != nil {
		return fmt.Errorf("notify.JSON: encode recommendation: %w", err)
	}
	return nil
}

func (j *JSON) NotifyPortfolio(_ context.Context, view domain.PortfolioView) error {
	if err := j.enc.Encode(view); err != nil {
		return fmt.Errorf("notify.JSON: encode portfolio: %w", err)
	}
	return nil
}

func (j *JSON) NotifyBacktest(_ context.Context, r domain.BacktestReport) error {
	if err := j.enc.Encode(r); err != nil {
		return fmt.Errorf("notify.JSON: encode backtest: %w", err)
	}
	return nil
}
