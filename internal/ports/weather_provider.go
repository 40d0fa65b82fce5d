package ports

import (
	"context"

	"github.com/jmorales/wxslate/internal/domain"
)

// WeatherProvider obtiene observaciones y forecasts por estación.
// Ambos métodos pueden devolver nil sin error: "sin datos" es un resultado
// válido y el pipeline degrada, nunca falla.
type WeatherProvider interface {
	LatestObservation(ctx context.Context, stationICAO string) (*domain.Observation, error)
	Forecast(ctx context.Context, stationICAO string) (*domain.Forecast, error)
}
