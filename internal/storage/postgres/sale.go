package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/erp-pos/internal/domain/ledger"
	"github.com/xenking/erp-pos/internal/domain/order"
)

const insertSaleSQL = `INSERT INTO sales (id, table_id, total, payment_method, completed_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO NOTHING`

var saleItemColumns = []string{
	"sale_id", "position", "line_id", "menu_item_id", "name", "category_id", "unit_price", "quantity",
}

var _ ledger.Archive = (*SaleArchive)(nil)

// SaleArchive implements ledger.Archive backed by PostgreSQL.
type SaleArchive struct {
	pool *pgxpool.Pool
}

// NewSaleArchive returns a SaleArchive that uses the given pool.
func NewSaleArchive(pool *pgxpool.Pool) *SaleArchive {
	return &SaleArchive{pool: pool}
}

// Save stores the sale and its lines in one transaction. Saving a sale id
// that is already archived is a no-op.
func (a *SaleArchive) Save(ctx context.Context, sale order.CompletedSale) error {
	err := pgx.BeginFunc(ctx, a.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, insertSaleSQL,
			sale.ID, sale.TableID, sale.Total, sale.PaymentMethod, sale.CompletedAt,
		)
		if err != nil {
			return errors.Wrap(err, "insert sale")
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		rows := make([][]any, len(sale.Items))
		for i, l := range sale.Items {
			rows[i] = []any{
				sale.ID, i, l.LineID, l.MenuItemID, l.Name, l.CategoryID, l.UnitPrice, l.Quantity,
			}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"sale_items"}, saleItemColumns, pgx.CopyFromRows(rows)); err != nil {
			return errors.Wrap(err, "copy sale items")
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "archive sale %q", sale.ID)
	}
	return nil
}

// Ping checks connectivity.
func (a *SaleArchive) Ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}
