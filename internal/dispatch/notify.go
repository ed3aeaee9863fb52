package dispatch

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/erp-pos/internal/domain/kitchen"
)

type notifying struct {
	primary  kitchen.Dispatcher
	notifier kitchen.Dispatcher
}

// WithNotifier returns a dispatcher whose outcome is that of primary. After
// primary succeeds the ticket is also handed to notifier; its errors are only
// logged.
func WithNotifier(primary, notifier kitchen.Dispatcher) kitchen.Dispatcher {
	if notifier == nil {
		return primary
	}
	return &notifying{primary: primary, notifier: notifier}
}

func (n *notifying) Dispatch(ctx context.Context, t kitchen.Ticket) (kitchen.Receipt, error) {
	r, err := n.primary.Dispatch(ctx, t)
	if err != nil {
		return r, err
	}
	if _, err := n.notifier.Dispatch(ctx, t); err != nil {
		zctx.From(ctx).Warn("Kitchen notification failed",
			zap.String("table", t.TableID),
			zap.Error(err),
		)
	}
	return r, nil
}
