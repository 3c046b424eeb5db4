package cart

import (
	"context"

	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/angelmondragon/hauler-backend/pkg/logger"
	"github.com/angelmondragon/hauler-backend/pkg/metrics"
)

// LogNotifier writes each notice to the structured log and counts the outcome.
type LogNotifier struct {
	logg    *logger.Logger
	metrics *metrics.Metrics
}

func NewLogNotifier(logg *logger.Logger, m *metrics.Metrics) *LogNotifier {
	return &LogNotifier{logg: logg, metrics: m}
}

func (n *LogNotifier) Notify(ctx context.Context, operation string, owner Owner, mutation Mutation) {
	n.metrics.IncCartOutcome(operation, mutation.Outcome.String())
	if n.logg == nil {
		return
	}
	ctx = n.logg.WithFields(ctx, map[string]any{
		"cart_operation": operation,
		"cart_outcome":   mutation.Outcome.String(),
		"buyer_id":       owner.BuyerID.String(),
		"notice_title":   mutation.Notice.Title,
	})
	if mutation.Notice.Severity == enums.NoticeSeverityDestructive {
		n.logg.Warn(ctx, mutation.Notice.Description)
		return
	}
	n.logg.Info(ctx, mutation.Notice.Description)
}
