package ports

import (
	"context"

	"github.com/jmorales/wxslate/internal/domain"
)

// MarketProvider obtiene el batch de candidatos crudos del día desde Kalshi.
type MarketProvider interface {
	// FetchCandidates descubre las series de temperatura, enumera los brackets
	// del día y devuelve los que caen dentro de la ventana de scan.
	// También devuelve los conteos de eventos y brackets escaneados.
	FetchCandidates(ctx context.Context) ([]domain.RawCandidate, domain.ScanStats, error)

	// FetchEventPrices devuelve el implied NO ask actual por ticker para los
	// eventos de las ciudades dadas. Lo usa el spike monitor.
	FetchEventPrices(ctx context.Context, cities []string) (map[string]int, error)
}
