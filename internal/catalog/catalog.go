package catalog

// catalog.go — tabla estática de carteras modelo.
//
// Una única fuente versionada (YAML) reemplaza las copias de la tabla que vivían
// en cada variante del dashboard. Se valida al cargar: si algún peso no suma
// 100 ± tolerancia el arranque falla.

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/alejandrodnm/riskfolio/internal/domain"
)

//go:embed default.yaml
var defaultYAML []byte

// NoDescription se muestra para tickers sin descripción en el catálogo.
const NoDescription = "No description available."

// ErrInvalidCatalog envuelve cualquier violación del esquema del catálogo.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Key identifica una entrada del catálogo.
type Key struct {
	Risk    domain.RiskProfile
	Horizon domain.Horizon
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Risk, k.Horizon)
}

// Asset es la información de presentación de un ticker.
type Asset struct {
	Description string `yaml:"description" json:"description"`
	Link        string `yaml:"link" json:"link,omitempty"`
}

// Catalog es de solo lectura una vez cargado.
type Catalog struct {
	version    int
	tolerance  float64
	portfolios map[Key]domain.Allocation
	fallback   domain.Allocation
	assets     map[string]Asset
}

// Default carga el catálogo embebido en el binario.
func Default() (*Catalog, error) {
	c, err := Parse(defaultYAML, 0)
	if err != nil {
		return nil, fmt.Errorf("catalog.Default: %w", err)
	}
	return c, nil
}

// Load lee y valida el catálogo desde path. Con path vacío usa el embebido.
// tolerance > 0 sobreescribe la tolerancia declarada en el archivo.
func Load(path string, tolerance float64) (*Catalog, error) {
	if path == "" {
		c, err := Parse(defaultYAML, tolerance)
		if err != nil {
			return nil, fmt.Errorf("catalog.Load: embedded: %w", err)
		}
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog.Load: read %q: %w", path, err)
	}
	c, err := Parse(data, tolerance)
	if err != nil {
		return nil, fmt.Errorf("catalog.Load: %q: %w", path, err)
	}
	return c, nil
}

// Lookup devuelve la cartera para (risk, horizon). Es total: cualquier clave
// ausente, incluido un perfil todavía sin clasificar, devuelve la cartera por
// defecto 50/50. Siempre devuelve una copia.
func (c *Catalog) Lookup(risk domain.RiskProfile, horizon domain.Horizon) domain.Allocation {
	if alloc, ok := c.portfolios[Key{risk, horizon}]; ok {
		return alloc.Clone()
	}
	return c.fallback.Clone()
}

// Has devuelve true si (risk, horizon) tiene entrada propia (no fallback).
func (c *Catalog) Has(risk domain.RiskProfile, horizon domain.Horizon) bool {
	_, ok := c.portfolios[Key{risk, horizon}]
	return ok
}

// Default devuelve la cartera de fallback.
func (c *Catalog) Default() domain.Allocation {
	return c.fallback.Clone()
}

// Describe devuelve la descripción del ticker o NoDescription.
func (c *Catalog) Describe(ticker string) string {
	if a, ok := c.assets[ticker]; ok && a.Description != "" {
		return a.Description
	}
	return NoDescription
}

// Link devuelve el enlace de referencia del ticker, si tiene.
func (c *Catalog) Link(ticker string) (string, bool) {
	a, ok := c.assets[ticker]
	if !ok || a.Link == "" {
		return "", false
	}
	return a.Link, true
}

// Asset devuelve la ficha del ticker con la descripción de fallback aplicada.
func (c *Catalog) Asset(ticker string) Asset {
	link, _ := c.Link(ticker)
	return Asset{Description: c.Describe(ticker), Link: link}
}

// Version devuelve la versión declarada en el artefacto.
func (c *Catalog) Version() int { return c.version }

// Tolerance devuelve la tolerancia usada para validar los pesos.
func (c *Catalog) Tolerance() float64 { return c.tolerance }

// Keys devuelve las claves en orden (perfil, horizonte).
func (c *Catalog) Keys() []Key {
	keys := make([]Key, 0, len(c.portfolios))
	for _, r := range domain.RiskProfiles() {
		for _, h := range domain.Horizons() {
			if _, ok := c.portfolios[Key{r, h}]; ok {
				keys = append(keys, Key{r, h})
			}
		}
	}
	return keys
}
