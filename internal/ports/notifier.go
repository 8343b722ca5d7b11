package ports

import (
	"context"

	"github.com/alejandrodnm/lotwatch/internal/domain"
)

// StatusNotifier presenta el estado del motor al usuario.
type StatusNotifier interface {
	// NotifyStatus muestra el estado por vista tras cada tick del scheduler.
	// En la implementación de consola, imprime una línea compacta o una
	// tabla formateada según configuración.
	NotifyStatus(ctx context.Context, statuses []domain.ViewStatus) error

	// NotifyHotSegments muestra los segmentos más calientes del último pase.
	NotifyHotSegments(ctx context.Context, scores []domain.SegmentScore) error
}
