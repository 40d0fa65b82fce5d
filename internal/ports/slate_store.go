package ports

import (
	"context"

	"github.com/jmorales/wxslate/internal/domain"
)

// SlateStore persiste el historial de slates y recupera el run anterior.
type SlateStore interface {
	// SaveSlate persiste el slate de un run. Se llama exactamente una vez por run.
	SaveSlate(ctx context.Context, slate domain.DailySlate) error

	// LatestPrior devuelve el slate más reciente para la misma fecha objetivo
	// anterior al run dado, o nil si no existe. Un slate corrupto cuenta como
	// ausente: el delta degrada, el run continúa.
	LatestPrior(ctx context.Context, targetDate string, before domain.DailySlate) (*domain.DailySlate, error)

	// Close cierra la conexión limpiamente.
	Close() error
}
