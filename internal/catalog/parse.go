package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/riskfolio/internal/domain"
)

const defaultTolerance = 0.5

// expectedEntries = 3 perfiles × 2 horizontes.
var expectedEntries = len(domain.RiskProfiles()) * len(domain.Horizons())

type fileSchema struct {
	Version    int              `yaml:"version"`
	Tolerance  float64          `yaml:"tolerance"`
	Default    []domain.Holding `yaml:"default"`
	Portfolios []entrySchema    `yaml:"portfolios"`
	Assets     map[string]Asset `yaml:"assets"`
}

type entrySchema struct {
	Risk     string           `yaml:"risk"`
	Horizon  string           `yaml:"horizon"`
	Holdings []domain.Holding `yaml:"holdings"`
}

// Parse decodifica y valida un catálogo YAML.
// Todas las violaciones se acumulan en un único error que envuelve ErrInvalidCatalog.
func Parse(data []byte, tolerance float64) (*Catalog, error) {
	var f fileSchema
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse YAML: %v", ErrInvalidCatalog, err)
	}

	tol := f.Tolerance
	if tolerance > 0 {
		tol = tolerance
	}
	if tol <= 0 {
		tol = defaultTolerance
	}

	c := &Catalog{
		version:    f.Version,
		tolerance:  tol,
		portfolios: make(map[Key]domain.Allocation, len(f.Portfolios)),
		fallback:   domain.Allocation(f.Default),
		assets:     f.Assets,
	}
	if c.assets == nil {
		c.assets = make(map[string]Asset)
	}

	var errs []error
	if f.Version <= 0 {
		errs = append(errs, errors.New("version must be a positive integer"))
	}

	if len(c.fallback) == 0 {
		errs = append(errs, errors.New("default allocation is empty"))
	} else if err := validateHoldings(c.fallback, tol); err != nil {
		errs = append(errs, fmt.Errorf("default: %w", err))
	}

	for i, e := range f.Portfolios {
		risk, rerr := domain.ParseRiskProfile(e.Risk)
		horizon, herr := domain.ParseHorizon(e.Horizon)
		if rerr != nil || herr != nil || !risk.Valid() || !horizon.Valid() {
			errs = append(errs, fmt.Errorf("portfolios[%d]: unknown key %q/%q", i, e.Risk, e.Horizon))
			continue
		}
		key := Key{risk, horizon}
		if _, dup := c.portfolios[key]; dup {
			errs = append(errs, fmt.Errorf("portfolios[%d]: duplicate entry %s", i, key))
			continue
		}
		alloc := domain.Allocation(e.Holdings)
		if err := validateHoldings(alloc, tol); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		c.portfolios[key] = alloc
	}

	if len(c.portfolios) != expectedEntries {
		errs = append(errs, fmt.Errorf("expected %d portfolios, got %d", expectedEntries, len(c.portfolios)))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}
	return c, nil
}

// validateHoldings comprueba tickers únicos, pesos no negativos y que la suma
// exacta (en decimal, sin error de coma flotante) esté en 100 ± tol.
func validateHoldings(alloc domain.Allocation, tol float64) error {
	if len(alloc) == 0 {
		return errors.New("no holdings")
	}

	seen := make(map[string]bool, len(alloc))
	total := decimal.Zero
	for _, h := range alloc {
		if h.Ticker == "" {
			return errors.New("holding with empty ticker")
		}
		if seen[h.Ticker] {
			return fmt.Errorf("duplicate ticker %q", h.Ticker)
		}
		seen[h.Ticker] = true
		if h.Weight < 0 {
			return fmt.Errorf("negative weight for %q", h.Ticker)
		}
		total = total.Add(decimal.NewFromFloat(h.Weight))
	}

	hundred := decimal.NewFromInt(100)
	if total.Sub(hundred).Abs().GreaterThan(decimal.NewFromFloat(tol)) {
		return fmt.Errorf("weights sum to %s, want 100 ± %s", total.String(), decimal.NewFromFloat(tol).String())
	}
	return nil
}
