// Package pos applies the front-of-house policies on top of the order store:
// which lines may go to the kitchen, when a table may be billed, and how the
// outcome of the external collaborators is reported back to staff.
package pos

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/erp-pos/internal/domain/billing"
	"github.com/xenking/erp-pos/internal/domain/kitchen"
	"github.com/xenking/erp-pos/internal/domain/ledger"
	"github.com/xenking/erp-pos/internal/domain/menu"
	"github.com/xenking/erp-pos/internal/domain/order"
)

// Defaults used by the service.
const (
	RecentSalesLimit    = 7
	RecentInvoicesLimit = 20

	archiveTimeout = 5 * time.Second
)

// DefaultPaymentMethods are the tenders offered at the till.
var DefaultPaymentMethods = []string{"Cash", "Card", "Wallet"}

// Config holds non-dependency configuration for the Service.
type Config struct {
	// Tables lists the table ids on the floor, in floor-plan order.
	Tables []string
	// TaxRate is applied to every bill. Nil means order.DefaultTaxRate; zero
	// disables tax.
	TaxRate *decimal.Decimal
	// PaymentMethods accepted by Settle. Empty means DefaultPaymentMethods.
	PaymentMethods []string
}

// Outcome is what staff see after a kitchen dispatch or a settlement.
type Outcome struct {
	Success bool
	Message string
}

// Selection picks the lines of a kitchen dispatch. With All set, every line
// that has not been sent yet is picked and LineIDs is ignored.
type Selection struct {
	LineIDs []string
	All     bool
}

// TableView is a table's open order as shown on a terminal.
type TableView struct {
	TableID string
	Status  order.TableStatus
	// Lines are in display order.
	Lines  []order.LineItem
	Totals order.Totals
}

// TableSummary is one entry of the floor plan.
type TableSummary struct {
	TableID string
	Status  order.TableStatus
	Lines   int
}

// SettleResult is the outcome of a settlement. Sale is set on success.
type SettleResult struct {
	Outcome
	Totals order.Totals
	Sale   *order.CompletedSale
}

// Report feeds the sales dashboard.
type Report struct {
	Summary    ledger.Summary
	ByCategory []ledger.CategoryRevenue
	Recent     []order.CompletedSale
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithArchive forwards every completed sale to a.
func WithArchive(a ledger.Archive) Option {
	return func(s *Service) { s.archive = a }
}

// WithMeterProvider sets the meter provider for service metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider for service spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// WithClock overrides the clock used to stamp kitchen tickets.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service encapsulates order taking, kitchen dispatch and settlement.
type Service struct {
	catalog *menu.Catalog
	store   *order.Store
	ledger  *ledger.Ledger
	kitchen kitchen.Dispatcher
	biller  billing.Biller
	archive ledger.Archive

	tables   []string
	tableSet map[string]struct{}
	taxRate  decimal.Decimal
	methods  []string
	now      func() time.Time

	// busy holds tables with a dispatch or settlement in flight.
	busyMu sync.Mutex
	busy   map[string]activity

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	dispatches     metric.Int64Counter
	settlements    metric.Int64Counter
	revenue        metric.Float64Counter
}

// NewService creates a Service with the required domain dependencies.
func NewService(
	cfg Config,
	catalog *menu.Catalog,
	store *order.Store,
	sales *ledger.Ledger,
	dispatcher kitchen.Dispatcher,
	biller billing.Biller,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		catalog:        catalog,
		store:          store,
		ledger:         sales,
		kitchen:        dispatcher,
		biller:         biller,
		tables:         slices.Clone(cfg.Tables),
		tableSet:       make(map[string]struct{}, len(cfg.Tables)),
		taxRate:        order.DefaultTaxRate,
		methods:        slices.Clone(cfg.PaymentMethods),
		now:            time.Now,
		busy:           make(map[string]activity),
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	for _, o := range opts {
		o(s)
	}
	if cfg.TaxRate != nil {
		s.taxRate = *cfg.TaxRate
	}
	if len(s.methods) == 0 {
		s.methods = slices.Clone(DefaultPaymentMethods)
	}
	for _, id := range s.tables {
		s.tableSet[id] = struct{}{}
	}

	s.tracer = s.tracerProvider.Tracer("pos")
	meter := s.meterProvider.Meter("pos")

	var err error
	if s.dispatches, err = meter.Int64Counter("pos.kitchen.dispatches",
		metric.WithDescription("Kitchen dispatch attempts by result"),
	); err != nil {
		return nil, errors.Wrap(err, "create dispatches counter")
	}
	if s.settlements, err = meter.Int64Counter("pos.settlements",
		metric.WithDescription("Settlement attempts by result"),
	); err != nil {
		return nil, errors.Wrap(err, "create settlements counter")
	}
	if s.revenue, err = meter.Float64Counter("pos.revenue",
		metric.WithDescription("Settled revenue including tax"),
	); err != nil {
		return nil, errors.Wrap(err, "create revenue counter")
	}

	return s, nil
}

// Catalog returns the menu.
func (s *Service) Catalog() *menu.Catalog {
	return s.catalog
}

// PaymentMethods returns the accepted tenders.
func (s *Service) PaymentMethods() []string {
	return slices.Clone(s.methods)
}

// TaxRate returns the rate applied to bills.
func (s *Service) TaxRate() decimal.Decimal {
	return s.taxRate
}

// Tables lists the floor plan with derived statuses.
func (s *Service) Tables() []TableSummary {
	out := make([]TableSummary, len(s.tables))
	for i, id := range s.tables {
		out[i] = TableSummary{
			TableID: id,
			Status:  s.store.TableStatus(id),
			Lines:   len(s.store.Order(id)),
		}
	}
	return out
}

// View returns the open order of a table.
func (s *Service) View(tableID string) (*TableView, error) {
	if err := s.checkTable(tableID); err != nil {
		return nil, err
	}
	return s.view(tableID), nil
}

func (s *Service) view(tableID string) *TableView {
	items := s.store.Order(tableID)
	return &TableView{
		TableID: tableID,
		Status:  s.store.TableStatus(tableID),
		Lines:   order.SortForDisplay(items, s.catalog),
		Totals:  order.ComputeTotals(items, s.taxRate),
	}
}

// AddItem adds one unit of a menu item to the table and returns the updated
// view.
func (s *Service) AddItem(ctx context.Context, tableID, menuItemID string) (*TableView, error) {
	if err := s.checkTable(tableID); err != nil {
		return nil, err
	}
	it, err := s.catalog.Item(menuItemID)
	if err != nil {
		return nil, errors.Wrapf(ErrUnknownMenuItem, "%q", menuItemID)
	}
	var l order.LineItem
	if err := s.edit(tableID, func() error {
		l = s.store.AddItem(tableID, it)
		return nil
	}); err != nil {
		return nil, err
	}
	zctx.From(ctx).Debug("Item added",
		zap.String("table", tableID),
		zap.String("line", l.LineID),
		zap.String("item", it.Name),
		zap.Int("quantity", l.Quantity),
	)
	return s.view(tableID), nil
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (s *Service) UpdateQuantity(ctx context.Context, tableID, lineID string, quantity int) (*TableView, error) {
	if err := s.checkTable(tableID); err != nil {
		return nil, err
	}
	if err := s.edit(tableID, func() error {
		return s.store.SetQuantity(tableID, lineID, quantity)
	}); err != nil {
		return nil, err
	}

	zctx.From(ctx).Debug("Quantity updated",
		zap.String("table", tableID),
		zap.String("line", lineID),
		zap.Int("quantity", quantity),
	)
	return s.view(tableID), nil
}

// CancelOrder drops the open order of a table without billing it.
func (s *Service) CancelOrder(ctx context.Context, tableID string) (bool, error) {
	if err := s.checkTable(tableID); err != nil {
		return false, err
	}
	var cleared bool
	if err := s.edit(tableID, func() error {
		cleared = s.store.Clear(tableID)
		return nil
	}); err != nil {
		return false, err
	}
	if cleared {
		zctx.From(ctx).Info("Order cancelled", zap.String("table", tableID))
	}
	return cleared, nil
}

// SendToKitchen dispatches the selected new lines of a table. The dispatcher
// runs without any table lock held; the lines are marked sent only after it
// confirms, at the quantities on the ticket. A failed dispatch leaves the
// order untouched so staff can retry.
func (s *Service) SendToKitchen(ctx context.Context, tableID string, sel Selection) (Outcome, error) {
	if err := s.checkTable(tableID); err != nil {
		return Outcome{}, err
	}

	ctx, span := s.tracer.Start(ctx, "pos.SendToKitchen",
		trace.WithAttributes(attribute.String("pos.table", tableID)),
	)
	defer span.End()

	if !s.begin(tableID, dispatching) {
		return Outcome{}, ErrTableBusy
	}
	defer s.end(tableID)

	items := s.resolveSelection(s.store.Order(tableID), sel)
	if len(items) == 0 {
		return Outcome{}, ErrNoItemsSelected
	}

	lg := zctx.From(ctx).With(zap.String("table", tableID))
	ticket := kitchen.NewTicket(tableID, items, s.catalog, s.now())

	receipt, err := s.kitchen.Dispatch(ctx, ticket)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch failed")
		s.dispatches.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "failed")))
		lg.Warn("Kitchen dispatch failed", zap.Error(err))
		return Outcome{Success: false, Message: dispatchFailureMessage(err)}, nil
	}

	sent := s.store.MarkDispatched(tableID, items)
	s.dispatches.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))
	lg.Info("Kitchen ticket dispatched",
		zap.String("location", receipt.Location),
		zap.Int("lines", len(items)),
		zap.Int("marked", sent),
	)

	return Outcome{
		Success: true,
		Message: fmt.Sprintf("Selected items for table %s sent to the kitchen.", tableID),
	}, nil
}

// resolveSelection returns the new lines picked by sel. Explicit ids keep
// their order; duplicates, sent lines and unknown ids are dropped.
func (s *Service) resolveSelection(items []order.LineItem, sel Selection) []order.LineItem {
	selectable := order.Selectable(items)
	if sel.All {
		return order.SortForDisplay(selectable, s.catalog)
	}

	byID := make(map[string]order.LineItem, len(selectable))
	for _, l := range selectable {
		byID[l.LineID] = l
	}
	out := make([]order.LineItem, 0, len(sel.LineIDs))
	for _, id := range sel.LineIDs {
		if l, ok := byID[id]; ok {
			out = append(out, l)
			delete(byID, id)
		}
	}
	return out
}

// Settle bills the table through the invoicing system and, on success,
// records the sale and frees the table. Billing is refused while any line has
// not been sent to the kitchen.
func (s *Service) Settle(ctx context.Context, tableID, paymentMethod string) (*SettleResult, error) {
	if err := s.checkTable(tableID); err != nil {
		return nil, err
	}
	if !slices.Contains(s.methods, paymentMethod) {
		return nil, errors.Wrapf(ErrUnknownPaymentMethod, "%q", paymentMethod)
	}

	ctx, span := s.tracer.Start(ctx, "pos.Settle",
		trace.WithAttributes(
			attribute.String("pos.table", tableID),
			attribute.String("pos.payment_method", paymentMethod),
		),
	)
	defer span.End()

	if !s.begin(tableID, settling) {
		return nil, ErrTableBusy
	}
	defer s.end(tableID)

	items, revision := s.store.Snapshot(tableID)
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	if order.HasNew(items) {
		return nil, ErrUnsentItems
	}

	lg := zctx.From(ctx).With(zap.String("table", tableID), zap.String("method", paymentMethod))
	totals := order.ComputeTotals(items, s.taxRate)

	receipt, err := s.biller.CreateInvoice(ctx, newInvoice(tableID, items, totals.Total, paymentMethod))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invoice failed")
		s.settlements.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "failed")))
		lg.Warn("Invoice failed", zap.Error(err))
		return &SettleResult{
			Outcome: Outcome{Success: false, Message: billingFailureMessage(err)},
			Totals:  totals,
		}, nil
	}

	sale, ok := s.store.CompleteIfUnchanged(tableID, revision, items, totals.Total, paymentMethod)
	if !ok {
		s.settlements.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "conflict")))
		lg.Error("Order changed while invoicing, invoice needs reconciliation",
			zap.String("invoice", receipt.InvoiceID),
		)
		return nil, ErrOrderChanged
	}

	s.settlements.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))
	s.revenue.Add(ctx, totals.Total.InexactFloat64())
	lg.Info("Table settled",
		zap.String("sale", sale.ID),
		zap.String("invoice", receipt.InvoiceID),
		zap.String("total", totals.Total.StringFixed(2)),
		zap.Bool("simulated", receipt.Simulated),
	)

	if s.archive != nil {
		s.archiveSale(ctx, sale)
	}

	return &SettleResult{
		Outcome: Outcome{
			Success: true,
			Message: fmt.Sprintf("Paid $%s for table %s via %s. %s",
				totals.Total.StringFixed(2), tableID, paymentMethod, receipt.Message),
		},
		Totals: totals,
		Sale:   &sale,
	}, nil
}

// archiveSale outlives the request: the sale is already completed and must
// reach the archive even if the client has gone.
func (s *Service) archiveSale(ctx context.Context, sale order.CompletedSale) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	if err := s.archive.Save(ctx, sale); err != nil {
		zctx.From(ctx).Error("Archive sale", zap.String("sale", sale.ID), zap.Error(err))
	}
}

func newInvoice(tableID string, items []order.LineItem, total decimal.Decimal, method string) billing.Invoice {
	inv := billing.Invoice{
		TableID:       tableID,
		Items:         make([]billing.InvoiceItem, len(items)),
		Total:         total,
		PaymentMethod: method,
	}
	for i, l := range items {
		inv.Items[i] = billing.InvoiceItem{
			Code:     l.Name,
			Quantity: l.Quantity,
			Rate:     l.UnitPrice,
		}
	}
	return inv
}

// Report returns the sales dashboard figures.
func (s *Service) Report() Report {
	return Report{
		Summary:    s.ledger.Summary(),
		ByCategory: s.ledger.RevenueByCategory(s.catalog),
		Recent:     s.ledger.Recent(RecentSalesLimit),
	}
}

// Invoices lists the newest invoices from the invoicing system. Any failure,
// including missing configuration, yields an empty list.
func (s *Service) Invoices(ctx context.Context) []billing.InvoiceRecord {
	records, err := s.biller.RecentInvoices(ctx, RecentInvoicesLimit)
	if err != nil {
		lvl := zap.WarnLevel
		if errors.Is(err, billing.ErrConfigurationMissing) {
			lvl = zap.DebugLevel
		}
		zctx.From(ctx).Log(lvl, "Fetch recent invoices", zap.Error(err))
		return []billing.InvoiceRecord{}
	}
	return records
}

func (s *Service) checkTable(tableID string) error {
	if _, ok := s.tableSet[tableID]; !ok {
		return errors.Wrapf(ErrUnknownTable, "%q", tableID)
	}
	return nil
}

type activity uint8

const (
	dispatching activity = iota + 1
	settling
)

// begin claims the table for a collaborator call. Only one call per table
// may be in flight.
func (s *Service) begin(tableID string, a activity) bool {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()

	if _, ok := s.busy[tableID]; ok {
		return false
	}
	s.busy[tableID] = a
	return true
}

func (s *Service) end(tableID string) {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()

	delete(s.busy, tableID)
}

// edit runs fn unless the table is being billed. busyMu is held across fn so
// a settlement cannot claim the table between the check and the edit, and its
// snapshot always sees every accepted edit. Edits during a kitchen dispatch
// are fine: MarkDispatched only sends what was on the ticket.
func (s *Service) edit(tableID string, fn func() error) error {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()

	if s.busy[tableID] == settling {
		return ErrTableBusy
	}
	return fn()
}

func dispatchFailureMessage(err error) string {
	if errors.Is(err, kitchen.ErrEmptyTicket) {
		return "Order is empty."
	}
	return "Failed to send order to the kitchen."
}

func billingFailureMessage(err error) string {
	var rejected *billing.RejectedError
	switch {
	case errors.As(err, &rejected):
		return rejected.Message
	case errors.Is(err, billing.ErrTimeout):
		return "The invoicing system did not respond in time."
	case errors.Is(err, billing.ErrConfigurationMissing):
		return "The invoicing system is not configured."
	default:
		return "Failed to connect to the invoicing system."
	}
}
