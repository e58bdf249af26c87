package ports

import (
	"context"

	"github.com/alejandrodnm/riskfolio/internal/domain"
)

// StatsProvider carga las estadísticas por activo (retorno esperado, volatilidad)
// para un horizonte. Los valores llegan siempre como fracción.
type StatsProvider interface {
	// LoadStats devuelve ticker → estadística. Si la fuente no existe devuelve un
	// mapa vacío y nil ("no disponible"). Datos no numéricos → error que envuelve
	// domain.ErrMalformedData.
	LoadStats(ctx context.Context, horizon domain.Horizon) (map[string]domain.AssetStat, error)
}
