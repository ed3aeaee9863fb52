package erpnext

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/erp-pos/internal/domain/billing"
)

func encodeInvoice(inv billing.Invoice, customer, currency string) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("customer", func(e *jx.Encoder) { e.Str(customer) })
		e.Field("currency", func(e *jx.Encoder) { e.Str(currency) })
		e.Field("set_posting_time", func(e *jx.Encoder) { e.Int(1) })
		e.Field("docstatus", func(e *jx.Encoder) { e.Int(1) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range inv.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("item_code", func(e *jx.Encoder) { e.Str(it.Code) })
						e.Field("qty", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("rate", func(e *jx.Encoder) { e.Num(jx.Num(it.Rate.String())) })
					})
				}
			})
		})
		e.Field("payments", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("mode_of_payment", func(e *jx.Encoder) { e.Str(inv.PaymentMethod) })
					e.Field("amount", func(e *jx.Encoder) { e.Num(jx.Num(inv.Total.StringFixed(2))) })
				})
			})
		})
	})
	return e.Bytes()
}

// decodeCreated extracts data.name from a resource create response.
func decodeCreated(body []byte) (string, error) {
	var name string
	err := jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if key != "data" {
			return d.Skip()
		}
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "name" {
				return d.Skip()
			}
			v, err := d.Str()
			name = v
			return err
		})
	})
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", errors.New("response has no invoice name")
	}
	return name, nil
}

func decodeInvoiceList(body []byte) ([]billing.InvoiceRecord, error) {
	records := []billing.InvoiceRecord{}
	err := jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if key != "data" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var r billing.InvoiceRecord
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "name":
					r.ID, err = d.Str()
				case "customer":
					r.Customer, err = optionalStr(d)
				case "posting_date":
					r.PostingDate, err = optionalStr(d)
				case "grand_total":
					r.GrandTotal, err = decodeDecimal(d)
				default:
					err = d.Skip()
				}
				return err
			}); err != nil {
				return err
			}
			records = append(records, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// decodeException returns the remote error text of a failed call, or "".
// ERPNext reports it in "exception", older versions in "message".
func decodeException(body []byte) string {
	if !jx.Valid(body) {
		return ""
	}
	var exception, message string
	_ = jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "exception":
			v, err := optionalStr(d)
			exception = v
			return err
		case "message":
			if d.Next() != jx.String {
				return d.Skip()
			}
			v, err := d.Str()
			message = v
			return err
		default:
			return d.Skip()
		}
	})
	if exception != "" {
		return exception
	}
	return message
}

func optionalStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Null:
		return decimal.Zero, d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	}
}
