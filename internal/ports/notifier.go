package ports

import (
	"context"

	"github.com/jmorales/wxslate/internal/domain"
)

// Notifier presenta el slate final al usuario.
type Notifier interface {
	// Notify muestra el slate con sus buckets, ranks y el bloque delta.
	Notify(ctx context.Context, slate domain.DailySlate) error

	// Alert emite una alerta puntual del spike monitor.
	Alert(ctx context.Context, subject, body string) error
}
