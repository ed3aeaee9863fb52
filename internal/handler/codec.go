package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/erp-pos/internal/domain/billing"
	"github.com/xenking/erp-pos/internal/domain/ledger"
	"github.com/xenking/erp-pos/internal/domain/menu"
	"github.com/xenking/erp-pos/internal/domain/order"
	"github.com/xenking/erp-pos/internal/domain/pos"
)

const maxRequestBody = 64 << 10

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// decodeBody walks the JSON object in the request body, calling field for
// every key.
func decodeBody(r *http.Request, field func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	if err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}
	if err := jx.DecodeBytes(body).Obj(field); err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}
	return nil
}

func money(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}

func (h *Handler) encodeMenu(e *jx.Encoder, c *menu.Catalog) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("categories", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, cat := range c.Categories() {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Str(cat.ID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(cat.Name) })
					})
				}
			})
		})
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range c.Items() {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("price", func(e *jx.Encoder) { money(e, it.Price) })
						e.Field("categoryId", func(e *jx.Encoder) { e.Str(it.CategoryID) })
						e.Field("image", func(e *jx.Encoder) { e.Str(h.imageURL(it.Image)) })
						e.Field("hint", func(e *jx.Encoder) { e.Str(it.Hint) })
					})
				}
			})
		})
	})
}

func encodeLine(e *jx.Encoder, l order.LineItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("lineId", func(e *jx.Encoder) { e.Str(l.LineID) })
		e.Field("menuItemId", func(e *jx.Encoder) { e.Str(l.MenuItemID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
		e.Field("categoryId", func(e *jx.Encoder) { e.Str(l.CategoryID) })
		e.Field("unitPrice", func(e *jx.Encoder) { money(e, l.UnitPrice) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
		e.Field("amount", func(e *jx.Encoder) { money(e, l.Amount()) })
		e.Field("status", func(e *jx.Encoder) { e.Str(l.Status.String()) })
	})
}

func encodeTotals(e *jx.Encoder, t order.Totals) {
	e.Field("subtotal", func(e *jx.Encoder) { money(e, t.Subtotal) })
	e.Field("tax", func(e *jx.Encoder) { money(e, t.Tax) })
	e.Field("total", func(e *jx.Encoder) { money(e, t.Total) })
}

func encodeView(e *jx.Encoder, v *pos.TableView) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("tableId", func(e *jx.Encoder) { e.Str(v.TableID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(v.Status)) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range v.Lines {
					encodeLine(e, l)
				}
			})
		})
		encodeTotals(e, v.Totals)
	})
}

func encodeTables(e *jx.Encoder, tables []pos.TableSummary) {
	e.Arr(func(e *jx.Encoder) {
		for _, t := range tables {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Str(t.TableID) })
				e.Field("status", func(e *jx.Encoder) { e.Str(string(t.Status)) })
				e.Field("lines", func(e *jx.Encoder) { e.Int(t.Lines) })
			})
		}
	})
}

func encodeOutcome(e *jx.Encoder, o pos.Outcome) {
	e.Field("success", func(e *jx.Encoder) { e.Bool(o.Success) })
	e.Field("message", func(e *jx.Encoder) { e.Str(o.Message) })
}

func encodeSettle(e *jx.Encoder, res *pos.SettleResult) {
	e.Obj(func(e *jx.Encoder) {
		encodeOutcome(e, res.Outcome)
		encodeTotals(e, res.Totals)
		if res.Sale != nil {
			e.Field("saleId", func(e *jx.Encoder) { e.Str(res.Sale.ID) })
		}
	})
}

func encodeSale(e *jx.Encoder, s order.CompletedSale) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(s.ID) })
		e.Field("tableId", func(e *jx.Encoder) { e.Str(s.TableID) })
		e.Field("total", func(e *jx.Encoder) { money(e, s.Total) })
		e.Field("paymentMethod", func(e *jx.Encoder) { e.Str(s.PaymentMethod) })
		e.Field("completedAt", func(e *jx.Encoder) { e.Str(s.CompletedAt.UTC().Format(time.RFC3339)) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range s.Items {
					encodeLine(e, l)
				}
			})
		})
	})
}

func encodeReport(e *jx.Encoder, r pos.Report) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("totalRevenue", func(e *jx.Encoder) { money(e, r.Summary.TotalRevenue) })
		e.Field("orderCount", func(e *jx.Encoder) { e.Int(r.Summary.OrderCount) })
		e.Field("averageOrderValue", func(e *jx.Encoder) { money(e, r.Summary.AverageOrderValue) })
		e.Field("revenueByCategory", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, c := range r.ByCategory {
					encodeCategoryRevenue(e, c)
				}
			})
		})
		e.Field("recentSales", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, s := range r.Recent {
					encodeSale(e, s)
				}
			})
		})
	})
}

func encodeCategoryRevenue(e *jx.Encoder, c ledger.CategoryRevenue) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("categoryId", func(e *jx.Encoder) { e.Str(c.CategoryID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("revenue", func(e *jx.Encoder) { money(e, c.Revenue) })
	})
}

func encodeInvoices(e *jx.Encoder, records []billing.InvoiceRecord) {
	e.Arr(func(e *jx.Encoder) {
		for _, r := range records {
			e.Obj(func(e *jx.Encoder) {
				e.Field("name", func(e *jx.Encoder) { e.Str(r.ID) })
				e.Field("customer", func(e *jx.Encoder) { e.Str(r.Customer) })
				e.Field("postingDate", func(e *jx.Encoder) { e.Str(r.PostingDate) })
				e.Field("grandTotal", func(e *jx.Encoder) { money(e, r.GrandTotal) })
			})
		}
	})
}
