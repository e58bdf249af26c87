package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/alejandrodnm/riskfolio/internal/domain"
	"github.com/olekukonko/tablewriter"
)

const (
	barWidth       = 30
	maxDescription = 48
	maxCurveRows   = 12
)

// Console implementa ports.Notifier con tablas de texto.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador sobre cualquier writer (tests, archivos).
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// NotifyRecommendation imprime la tarjeta de resultado y, si el cuestionario está
// completo, la cartera recomendada.
func (c *Console) NotifyRecommendation(_ context.Context, rec domain.Recommendation) error {
	c.printCard(rec)

	if rec.Status != domain.StatusComplete {
		fmt.Fprintf(c.out, "\n  Survey incomplete. Missing: %s\n\n", strings.Join(rec.Missing, ", "))
		return nil
	}
	if rec.Portfolio == nil {
		return nil
	}
	c.printPortfolio(*rec.Portfolio)
	return nil
}

// NotifyPortfolio imprime solo la cartera (sin tarjeta de inversor).
func (c *Console) NotifyPortfolio(_ context.Context, view domain.PortfolioView) error {
	fmt.Fprintf(c.out, "\n=== MODEL PORTFOLIO: %s / %s ===\n", view.Risk.Label(), view.Horizon.Label())
	c.printPortfolio(view)
	return nil
}

// NotifyBacktest imprime las métricas del backtest y una muestra de la curva.
func (c *Console) NotifyBacktest(_ context.Context, r domain.BacktestReport) error {
	fmt.Fprintf(c.out, "\n=== BACKTEST: %s / %s ===\n", r.Risk.Label(), r.Horizon.Label())
	if !r.Available {
		fmt.Fprintf(c.out, "  %s\n\n", r.Notice)
		return nil
	}

	fmt.Fprintf(c.out, "  Period:              %s to %s (%d points)\n",
		r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"), r.Points)
	fmt.Fprintf(c.out, "  Cumulative return:   %s\n", pct(r.SimpleReturn))
	if r.HasLogReturn {
		fmt.Fprintf(c.out, "  Log return:          %s\n", pct(r.LogReturn))
	}
	fmt.Fprintf(c.out, "  Max drawdown:        %s\n", pct(r.MaxDrawdown))
	if r.HasVolatility {
		fmt.Fprintf(c.out, "  Annualized vol:      %s\n", pct(r.AnnualizedVolatility))
	}
	fmt.Fprintln(c.out)

	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "NAV", "Drawdown")
	for _, p := range sampleCurve(r.Series, maxCurveRows) {
		table.Append(
			p.Date.Format("2006-01-02"),
			fmt.Sprintf("%.4f", p.NAV),
			pct(p.MDD),
		)
	}
	table.Render()
	fmt.Fprintln(c.out)
	return nil
}

// printCard imprime el bloque de inversor: nombre, perfil y horizonte.
func (c *Console) printCard(rec domain.Recommendation) {
	fmt.Fprintf(c.out, "\n=== INVESTOR PROFILE ===\n")
	fmt.Fprintf(c.out, "  Name:      %s\n", rec.Answers.DisplayName())
	if g := strings.TrimSpace(rec.Answers.Gender); g != "" {
		fmt.Fprintf(c.out, "  Gender:    %s\n", g)
	}
	if rec.Status == domain.StatusComplete {
		fmt.Fprintf(c.out, "  Profile:   %s (score %d of %d)\n", rec.ProfileLabel(), rec.Score, domain.MaxScore)
	} else {
		fmt.Fprintf(c.out, "  Profile:   %s\n", rec.ProfileLabel())
	}
	fmt.Fprintf(c.out, "  Horizon:   %s\n", rec.HorizonLabel())
}

// printPortfolio imprime la tabla de activos, las barras de proporción y el resumen.
func (c *Console) printPortfolio(view domain.PortfolioView) {
	fmt.Fprintln(c.out)

	table := tablewriter.NewWriter(c.out)
	table.Header("Ticker", "Description", "Weight", "Exp. return", "Volatility")
	for _, row := range view.Rows {
		er, vol := "n/a", "n/a"
		if row.HasStats {
			er, vol = pct(row.ExpectedReturn), pct(row.Volatility)
		}
		table.Append(
			row.Ticker,
			truncate(row.Description, maxDescription),
			fmt.Sprintf("%.1f%%", row.Weight),
			er,
			vol,
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "\n  --- ALLOCATION ---\n")
	shares := view.Allocation.Shares()
	width := tickerWidth(view.Allocation)
	for i, h := range view.Allocation {
		fmt.Fprintf(c.out, "  %-*s %s %5.1f%%\n", width, h.Ticker, bar(shares[i], barWidth), shares[i]*100)
	}

	fmt.Fprintf(c.out, "\n  --- SUMMARY ---\n")
	if view.StatsAvailable {
		fmt.Fprintf(c.out, "  Expected return:     %s\n", pct(view.ExpectedReturn))
		fmt.Fprintf(c.out, "  Volatility:          %s (weighted sum, no correlation)\n", pct(view.Volatility))
	}
	fmt.Fprintf(c.out, "  Check:               %s\n", view.WeightCheck)

	for _, w := range view.Warnings {
		fmt.Fprintf(c.out, "  ⚠ no statistics for %s (counted as 0)\n", w.Ticker)
	}
	for _, n := range view.Notices {
		fmt.Fprintf(c.out, "  ⚠ %s\n", n)
	}

	links := false
	for _, row := range view.Rows {
		if row.Link == "" {
			continue
		}
		if !links {
			fmt.Fprintf(c.out, "\n  --- MORE INFO ---\n")
			links = true
		}
		fmt.Fprintf(c.out, "  %-*s %s\n", width, row.Ticker, row.Link)
	}
	fmt.Fprintln(c.out)
}

// sampleCurve devuelve como mucho n puntos repartidos, siempre con el primero y el último.
func sampleCurve(s domain.BacktestSeries, n int) domain.BacktestSeries {
	if len(s) <= n || n < 2 {
		return s
	}
	out := make(domain.BacktestSeries, 0, n)
	step := float64(len(s)-1) / float64(n-1)
	for i := 0; i < n; i++ {
		out = append(out, s[int(math.Round(float64(i)*step))])
	}
	return out
}

func bar(share float64, width int) string {
	filled := int(math.Round(share * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func tickerWidth(a domain.Allocation) int {
	w := 6
	for _, h := range a {
		if len(h.Ticker) > w {
			w = len(h.Ticker)
		}
	}
	return w
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
