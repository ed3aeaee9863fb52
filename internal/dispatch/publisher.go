package dispatch

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xenking/erp-pos/internal/domain/kitchen"
)

// DefaultExchange is the topic exchange kitchen displays bind to.
const DefaultExchange = "kitchen_topic"

const publishTimeout = 5 * time.Second

var _ kitchen.Dispatcher = (*Publisher)(nil)

// Channel is the subset of *amqp.Channel used by Publisher.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends tickets to a RabbitMQ topic exchange with routing key
// kitchen.table.<id>.
type Publisher struct {
	ch       Channel
	exchange string
	conn     *amqp.Connection
}

// NewPublisher wraps an open channel. The exchange must already exist.
func NewPublisher(ch Channel, exchange string) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Publisher{ch: ch, exchange: exchange}
}

// DialPublisher connects to url and declares the durable topic exchange.
func DialPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial amqp")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}

	p := NewPublisher(ch, exchange)
	p.conn = conn
	return p, nil
}

// Close closes the underlying connection, if the publisher owns one.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

// RoutingKey returns the routing key for tickets of a table.
func RoutingKey(tableID string) string {
	return "kitchen.table." + tableID
}

// Dispatch publishes t as a persistent JSON message.
func (p *Publisher) Dispatch(ctx context.Context, t kitchen.Ticket) (kitchen.Receipt, error) {
	if t.Empty() {
		return kitchen.Receipt{}, kitchen.ErrEmptyTicket
	}

	body := EncodeTicket(t)
	key := RoutingKey(t.TableID)

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    t.CreatedAt,
		Body:         body,
	}); err != nil {
		return kitchen.Receipt{}, errors.Wrap(err, "publish ticket")
	}

	zctx.From(ctx).Debug("Ticket published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", key),
		zap.Int("size", len(body)),
	)
	return kitchen.Receipt{
		Location: p.exchange + "/" + key,
		Message:  "Ticket sent to kitchen displays.",
	}, nil
}

// EncodeTicket renders t as the JSON document consumed by kitchen displays.
func EncodeTicket(t kitchen.Ticket) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("table_id", func(e *jx.Encoder) { e.Str(t.TableID) })
		e.Field("created_at", func(e *jx.Encoder) { e.Str(t.CreatedAt.UTC().Format(time.RFC3339)) })
		e.Field("sections", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, s := range t.Sections {
					encodeSection(e, s)
				}
			})
		})
	})
	return e.Bytes()
}

func encodeSection(e *jx.Encoder, s kitchen.Section) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("category_id", func(e *jx.Encoder) { e.Str(s.CategoryID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(s.Name) })
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range s.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("line_id", func(e *jx.Encoder) { e.Str(l.LineID) })
						e.Field("menu_item_id", func(e *jx.Encoder) { e.Str(l.MenuItemID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
					})
				}
			})
		})
	})
}
