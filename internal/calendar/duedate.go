package calendar

import (
	"time"

	"github.com/spec-kit/oirs-service/internal/domain"
	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

const (
	standardBusinessDays     = 15
	commendationBusinessDays = 20
)

// BusinessDaysFor returns the response allotment for a request type.
func BusinessDaysFor(requestType domain.RequestType) int {
	if requestType == domain.RequestTypeFelicitacion {
		return commendationBusinessDays
	}
	return standardBusinessDays
}

// Calculator computes case due dates for one weekend definition.
type Calculator struct {
	Weekend WeekendMask
}

// NewCalculator returns a calculator; a zero mask means DefaultWeekend.
func NewCalculator(weekend WeekendMask) Calculator {
	if weekend == 0 {
		weekend = DefaultWeekend
	}
	return Calculator{Weekend: weekend}
}

// DueDate returns the date BusinessDaysFor(requestType) working days after
// receivedAt, skipping weekends and the given holidays.
func (c Calculator) DueDate(receivedAt time.Time, requestType domain.RequestType, holidays HolidaySet) (time.Time, error) {
	if receivedAt.IsZero() {
		return time.Time{}, apperrors.NewValidationError("receivedAt required", nil)
	}
	if !requestType.Valid() {
		return time.Time{}, apperrors.NewValidationError("invalid request type", map[string]any{"request_type": string(requestType)})
	}
	weekend := c.Weekend
	if weekend == 0 {
		weekend = DefaultWeekend
	}
	return AddBusinessDays(receivedAt, BusinessDaysFor(requestType), weekend, holidays)
}

// YearsSpanned returns the calendar years a due date computed from receivedAt
// may fall in, so holiday sets for all of them can be resolved up front.
func YearsSpanned(receivedAt time.Time) []int {
	y := Day(receivedAt).Year()
	return []int{y, y + 1}
}
