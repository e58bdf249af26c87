package notify

// pdf.go — informe descargable de una recomendación.
//
// Una sola página A4 (con salto automático si la cartera es larga):
//   - cabecera y tarjeta del inversor
//   - tabla de la cartera con barras de proporción
//   - resumen, avisos y, opcionalmente, el bloque de backtest

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/alejandrodnm/riskfolio/internal/domain"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

var portfolioCols = []float64{25, 75, 25, 30, 25}

type pdfReport struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	now time.Time
}

// RecommendationPDF genera el informe de una recomendación completa.
// backtest es opcional. Una recomendación incompleta devuelve ErrSurveyIncomplete.
func RecommendationPDF(rec domain.Recommendation, backtest *domain.BacktestReport) ([]byte, error) {
	if rec.Status != domain.StatusComplete || rec.Portfolio == nil {
		return nil, fmt.Errorf("notify.RecommendationPDF: %w", domain.ErrSurveyIncomplete)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetTitle("Investment recommendation", false)

	now := rec.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	r := &pdfReport{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), now: now}

	pdf.AddPage()
	r.addHeader(rec)
	r.addPortfolio(*rec.Portfolio)
	if backtest != nil {
		r.addBacktest(*backtest)
	}
	r.addDisclaimer()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("notify.RecommendationPDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *pdfReport) addHeader(rec domain.Recommendation) {
	r.pdf.SetFont("Arial", "B", 22)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 12, "Investment Recommendation", "", 1, "C", false, 0, "")

	r.pdf.SetFont("Arial", "I", 10)
	r.pdf.SetTextColor(120, 120, 120)
	r.pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Generated: %s", r.now.Format("2 January 2006")), "", 1, "C", false, 0, "")
	r.pdf.Ln(6)

	r.pdf.SetFillColor(245, 247, 250)
	r.pdf.SetDrawColor(200, 200, 200)
	r.pdf.SetFont("Arial", "B", 12)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 8, "Investor", "1", 1, "C", true, 0, "")

	r.pdf.SetFont("Arial", "", 11)
	r.pdf.SetTextColor(50, 50, 50)
	lines := []string{fmt.Sprintf("Name: %s", rec.Answers.DisplayName())}
	if rec.Answers.Gender != "" {
		lines = append(lines, fmt.Sprintf("Gender: %s", rec.Answers.Gender))
	}
	lines = append(lines,
		fmt.Sprintf("Risk profile: %s (score %d of %d)", rec.ProfileLabel(), rec.Score, domain.MaxScore),
		fmt.Sprintf("Investment horizon: %s", rec.HorizonLabel()),
	)
	for _, l := range lines {
		r.pdf.CellFormat(contentWidth, 7, r.tr(l), "LR", 1, "C", true, 0, "")
	}
	r.pdf.CellFormat(contentWidth, 1, "", "LRB", 1, "C", true, 0, "")
	r.pdf.Ln(8)
}

func (r *pdfReport) addPortfolio(view domain.PortfolioView) {
	r.drawSectionHeader("Model Portfolio")

	r.drawTableHeader([]string{"Ticker", "Description", "Weight", "Exp. return", "Volatility"}, portfolioCols)
	for _, row := range view.Rows {
		er, vol := "n/a", "n/a"
		if row.HasStats {
			er, vol = pct(row.ExpectedReturn), pct(row.Volatility)
		}
		r.drawTableRow([]string{
			row.Ticker,
			truncate(row.Description, 40),
			fmt.Sprintf("%.1f%%", row.Weight),
			er,
			vol,
		}, portfolioCols)
	}
	r.pdf.Ln(6)

	// Barras de proporción (equivalente impreso del gráfico de tarta)
	r.pdf.SetFont("Arial", "B", 11)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 7, "Allocation", "", 1, "L", false, 0, "")

	shares := view.Allocation.Shares()
	const labelW, pctW = 30.0, 20.0
	barW := contentWidth - labelW - pctW
	r.pdf.SetFont("Arial", "", 9)
	for i, h := range view.Allocation {
		y := r.pdf.GetY()
		r.pdf.SetTextColor(50, 50, 50)
		r.pdf.CellFormat(labelW, 5, r.tr(h.Ticker), "", 0, "L", false, 0, "")
		r.pdf.SetFillColor(230, 230, 230)
		r.pdf.Rect(marginLeft+labelW, y+1, barW, 3, "F")
		r.pdf.SetFillColor(0, 51, 102)
		if w := barW * shares[i]; w > 0 {
			r.pdf.Rect(marginLeft+labelW, y+1, w, 3, "F")
		}
		r.pdf.SetX(marginLeft + labelW + barW)
		r.pdf.CellFormat(pctW, 5, fmt.Sprintf("%.1f%%", shares[i]*100), "", 1, "R", false, 0, "")
	}
	r.pdf.Ln(6)

	r.pdf.SetFont("Arial", "B", 11)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 7, "Summary", "", 1, "L", false, 0, "")
	r.pdf.SetFont("Arial", "", 10)
	r.pdf.SetTextColor(50, 50, 50)
	if view.StatsAvailable {
		r.keyValue("Expected return:", pct(view.ExpectedReturn))
		r.keyValue("Volatility:", pct(view.Volatility)+" (weighted sum, no correlation)")
	}
	check := fmt.Sprintf("%.2f (target 100 +/- %.2f)", view.WeightCheck.Total, view.WeightCheck.Tolerance)
	r.keyValue("Weights total:", check)

	if len(view.Warnings) > 0 || len(view.Notices) > 0 {
		r.pdf.Ln(2)
		r.pdf.SetTextColor(150, 80, 0)
		for _, w := range view.Warnings {
			r.pdf.CellFormat(contentWidth, 5, r.tr(fmt.Sprintf("No statistics for %s (counted as 0)", w.Ticker)), "", 1, "L", false, 0, "")
		}
		for _, n := range view.Notices {
			r.pdf.MultiCell(contentWidth, 5, r.tr(n), "", "L", false)
		}
		r.pdf.SetTextColor(50, 50, 50)
	}
	r.pdf.Ln(6)
}

func (r *pdfReport) addBacktest(b domain.BacktestReport) {
	if r.pdf.GetY() > 220 {
		r.pdf.AddPage()
	}
	r.drawSectionHeader("Backtest")

	r.pdf.SetFont("Arial", "", 10)
	r.pdf.SetTextColor(50, 50, 50)
	if !b.Available {
		r.pdf.CellFormat(contentWidth, 6, r.tr(b.Notice), "", 1, "L", false, 0, "")
		r.pdf.Ln(4)
		return
	}

	r.keyValue("Period:", fmt.Sprintf("%s to %s (%d points)",
		b.Start.Format("2006-01-02"), b.End.Format("2006-01-02"), b.Points))
	r.keyValue("Cumulative return:", pct(b.SimpleReturn))
	if b.HasLogReturn {
		r.keyValue("Log return:", pct(b.LogReturn))
	}
	r.keyValue("Max drawdown:", pct(b.MaxDrawdown))
	if b.HasVolatility {
		r.keyValue("Annualized volatility:", pct(b.AnnualizedVolatility))
	}
	r.pdf.Ln(4)

	cols := []float64{60, 60, 60}
	r.drawTableHeader([]string{"Date", "NAV", "Drawdown"}, cols)
	for _, p := range sampleCurve(b.Series, maxCurveRows) {
		r.drawTableRow([]string{p.Date.Format("2006-01-02"), fmt.Sprintf("%.4f", p.NAV), pct(p.MDD)}, cols)
	}
	r.pdf.Ln(6)
}

func (r *pdfReport) addDisclaimer() {
	r.pdf.SetFont("Arial", "I", 8)
	r.pdf.SetTextColor(120, 120, 120)
	r.pdf.MultiCell(contentWidth, 4,
		"This document is for informational purposes only and does not constitute financial advice. "+
			"Model portfolios are static and figures are estimates based on historical statistics.", "", "C", false)
}

func (r *pdfReport) keyValue(key, value string) {
	r.pdf.CellFormat(45, 5, key, "", 0, "L", false, 0, "")
	r.pdf.CellFormat(contentWidth-45, 5, r.tr(value), "", 1, "L", false, 0, "")
}

func (r *pdfReport) drawSectionHeader(title string) {
	r.pdf.SetFont("Arial", "B", 16)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 10, title, "", 1, "L", false, 0, "")
	r.pdf.SetDrawColor(0, 51, 102)
	r.pdf.Line(marginLeft, r.pdf.GetY(), marginLeft+contentWidth, r.pdf.GetY())
	r.pdf.Ln(4)
}

func (r *pdfReport) drawTableHeader(headers []string, widths []float64) {
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 9)
	for i, h := range headers {
		align := "L"
		if i > 1 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 6, h, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func (r *pdfReport) drawTableRow(cells []string, widths []float64) {
	r.pdf.SetFillColor(250, 250, 250)
	r.pdf.SetTextColor(50, 50, 50)
	r.pdf.SetDrawColor(200, 200, 200)
	r.pdf.SetFont("Arial", "", 9)
	for i, cell := range cells {
		align := "L"
		if i > 1 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 5, r.tr(cell), "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}
