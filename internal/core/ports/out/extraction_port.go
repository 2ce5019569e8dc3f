package out

import (
	"context"

	"github.com/healthguardian/appointment-planner/internal/core/domain"
)

// ExtractionPort - распознавание фотографии талона/направления генеративной
// моделью. Результат считается недоверенным текстом: отсутствующие поля
// приходят пустыми строками, валидацией даты занимается ядро.
type ExtractionPort interface {
	ExtractAppointment(ctx context.Context, image []byte, mimeType string) (domain.AppointmentDetails, error)
}
