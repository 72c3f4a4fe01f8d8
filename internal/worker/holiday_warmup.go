package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// HolidayWarmer pre-resolves holiday sets. *holidays.Resolver satisfies it.
type HolidayWarmer interface {
	Warm(ctx context.Context, years ...int)
}

// HolidayWarmup refreshes the current and next year's holidays so due-date
// requests rarely wait on the external source.
type HolidayWarmup struct {
	warmer HolidayWarmer
	logger *zap.Logger
	now    func() time.Time
}

// NewHolidayWarmup builds the job.
func NewHolidayWarmup(warmer HolidayWarmer, logger *zap.Logger, now func() time.Time) *HolidayWarmup {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &HolidayWarmup{warmer: warmer, logger: logger, now: now}
}

// Years returns the years the job warms.
func (h *HolidayWarmup) Years() []int {
	y := h.now().UTC().Year()
	return []int{y, y + 1}
}

// Run warms once.
func (h *HolidayWarmup) Run(ctx context.Context) {
	h.warmer.Warm(ctx, h.Years()...)
}

// Start runs the job immediately and then on schedule, a standard 5-field
// cron expression evaluated in UTC. An empty schedule disables the job. The
// returned stop function waits for a running warm-up to finish.
func (h *HolidayWarmup) Start(ctx context.Context, schedule string) (func(), error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		h.logger.Info("holiday warm-up disabled (HOLIDAYS_WARMUP_SCHEDULE not set)")
		return func() {}, nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid holiday warm-up schedule %q: %w", schedule, err)
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(schedule, func() { h.Run(ctx) }); err != nil {
		return nil, err
	}
	go h.Run(ctx)
	c.Start()
	h.logger.Info("holiday warm-up scheduled", zap.String("cron", schedule))

	return func() {
		<-c.Stop().Done()
	}, nil
}
