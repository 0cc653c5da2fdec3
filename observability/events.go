package observability

import (
	"log/slog"

	"spotsale/core/events"
)

// LogEmitter forwards engine events to a structured logger. It also feeds
// the units-sold metrics so the daemon gets both without double wiring.
type LogEmitter struct {
	logger  *slog.Logger
	metrics *SaleMetrics
}

// NewLogEmitter builds an emitter over the given logger. A nil logger falls
// back to the process default.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger, metrics: Sale()}
}

// Emit implements the events.Emitter interface.
func (e *LogEmitter) Emit(evt events.Event) {
	if e == nil || evt == nil {
		return
	}
	e.logger.Info("sale event", "type", evt.EventType(), "detail", evt)
	switch typed := evt.(type) {
	case events.SpotSold:
		path := "mint"
		if typed.AsCoupon {
			path = "coupon"
		}
		e.metrics.AddUnitsSold(path, typed.Units)
	case events.BidFilled:
		e.metrics.AddUnitsSold("bid", typed.Units)
	case events.PlanExecuted:
		e.metrics.AddUnitsSold("plan", typed.Units)
	}
}
