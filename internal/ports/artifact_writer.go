package ports

import "github.com/jmorales/wxslate/internal/domain"

// ArtifactWriter serializa el slate a formas legibles por humanos y máquinas.
type ArtifactWriter interface {
	// WriteSlate escribe DAILY_SLATE json + REPORT md y devuelve sus rutas.
	WriteSlate(slate domain.DailySlate) (jsonPath, reportPath string, err error)
}
