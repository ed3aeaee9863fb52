// Package erpnext records POS sales as Sales Invoices in ERPNext through its
// REST resource API.
package erpnext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/erp-pos/internal/domain/billing"
)

const (
	invoiceResource = "api/resource/Sales Invoice"
	maxBodySize     = 1 << 20

	simulatedMessage = "Simulated successful sync to ERPNext."
)

// Defaults applied by New to empty Config fields.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultCustomer = "Walk-in Customer"
	DefaultCurrency = "USD"
)

var _ billing.Biller = (*Client)(nil)

// Config holds ERPNext connection settings.
type Config struct {
	URL       string
	APIKey    string
	APISecret string
	Timeout   time.Duration
	// Simulate reports success for invoices when URL or credentials are
	// missing, so the till keeps working without an ERP.
	Simulate bool
	Customer string
	Currency string
}

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient     *http.Client
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithHTTPClient overrides the HTTP client. Its timeout is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTracerProvider sets the tracer provider of the default transport.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider of the default transport.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// Client talks to a single ERPNext site.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client. No request is made.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Customer == "" {
		cfg.Customer = DefaultCustomer
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}

	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if o.httpClient == nil {
		var topts []otelhttp.Option
		if o.tracerProvider != nil {
			topts = append(topts, otelhttp.WithTracerProvider(o.tracerProvider))
		}
		if o.meterProvider != nil {
			topts = append(topts, otelhttp.WithMeterProvider(o.meterProvider))
		}
		o.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport, topts...),
		}
	}

	return &Client{cfg: cfg, http: o.httpClient}
}

// Configured reports whether the site URL and API credentials are set.
func (c *Client) Configured() bool {
	return c.cfg.URL != "" && c.cfg.APIKey != "" && c.cfg.APISecret != ""
}

// CreateInvoice submits a Sales Invoice with a single payment entry covering
// the total.
func (c *Client) CreateInvoice(ctx context.Context, inv billing.Invoice) (billing.Receipt, error) {
	if !c.Configured() {
		if c.cfg.Simulate {
			zctx.From(ctx).Info("ERPNext not configured, simulating invoice",
				zap.String("table", inv.TableID),
			)
			return billing.Receipt{Message: simulatedMessage, Simulated: true}, nil
		}
		return billing.Receipt{}, billing.ErrConfigurationMissing
	}

	endpoint, err := url.JoinPath(c.cfg.URL, invoiceResource)
	if err != nil {
		return billing.Receipt{}, errors.Wrap(err, "invoice url")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body := encodeInvoice(inv, c.cfg.Customer, c.cfg.Currency)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return billing.Receipt{}, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	status, data, err := c.do(ctx, req)
	if err != nil {
		return billing.Receipt{}, err
	}
	if status < 200 || status > 299 {
		return billing.Receipt{}, rejected(status, data)
	}

	name, err := decodeCreated(data)
	if err != nil {
		return billing.Receipt{}, errors.Wrap(err, "decode invoice response")
	}
	return billing.Receipt{
		InvoiceID: name,
		Message:   "Successfully created Sales Invoice " + name,
	}, nil
}

// RecentInvoices lists the newest Sales Invoices by posting date.
func (c *Client) RecentInvoices(ctx context.Context, limit int) ([]billing.InvoiceRecord, error) {
	if !c.Configured() {
		return nil, billing.ErrConfigurationMissing
	}

	endpoint, err := url.JoinPath(c.cfg.URL, invoiceResource)
	if err != nil {
		return nil, errors.Wrap(err, "invoice url")
	}
	q := url.Values{
		"fields":   {`["name","customer","posting_date","grand_total"]`},
		"order_by": {"posting_date desc"},
		"limit":    {strconv.Itoa(limit)},
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	status, data, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, rejected(status, data)
	}

	records, err := decodeInvoiceList(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode invoice list")
	}
	return records, nil
}

// do sends req with credentials and returns the status and body. A deadline
// hit while waiting maps to billing.ErrTimeout.
func (c *Client) do(ctx context.Context, req *http.Request) (int, []byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", c.cfg.APIKey, c.cfg.APISecret))

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, nil, errors.Wrapf(billing.ErrTimeout, "after %s", c.cfg.Timeout)
		}
		return 0, nil, errors.Wrap(err, "send request")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, nil, errors.Wrapf(billing.ErrTimeout, "after %s", c.cfg.Timeout)
		}
		return 0, nil, errors.Wrap(err, "read response")
	}
	return resp.StatusCode, data, nil
}

func rejected(status int, body []byte) error {
	msg := decodeException(body)
	if msg == "" {
		msg = "API Error: " + http.StatusText(status)
	}
	return &billing.RejectedError{StatusCode: status, Message: msg}
}
