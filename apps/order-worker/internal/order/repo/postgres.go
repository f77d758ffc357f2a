package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/address"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/outbox"
)

type Postgres struct {
	pool   *pgxpool.Pool
	outbox *outbox.Postgres
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, outbox: outbox.NewPostgres(pool)}
}

func (r *Postgres) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

func (r *Postgres) Outbox() outbox.Repository { return r.outbox }

func (r *Postgres) GetByID(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, customer_id, order_date, total_amount::text, currency, status, delivery_address, version,
		       paid_date, shipped_date, delivered_date, cancelled_date, refunded_date,
		       COALESCE(cancellation_reason, ''), COALESCE(refund_reason, '')
		FROM orders
		WHERE id = $1
	`, orderID)

	var (
		id                 uuid.UUID
		customerID         string
		orderDate          time.Time
		totalAmount        string
		currency           string
		status             order.Status
		addrJSON           []byte
		version            int
		paidDate           *time.Time
		shippedDate        *time.Time
		deliveredDate      *time.Time
		cancelledDate      *time.Time
		refundedDate       *time.Time
		cancellationReason string
		refundReason       string
	)
	if err := row.Scan(&id, &customerID, &orderDate, &totalAmount, &currency, &status, &addrJSON, &version,
		&paidDate, &shippedDate, &deliveredDate, &cancelledDate, &refundedDate,
		&cancellationReason, &refundReason); err != nil {
		return nil, err
	}

	var addr address.Address
	if err := json.Unmarshal(addrJSON, &addr); err != nil {
		return nil, err
	}
	total, err := money.New(totalAmount, currency)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		ID: id, CustomerID: customerID, OrderDate: orderDate, TotalAmount: total, Status: status,
		DeliveryAddress: addr, Version: version,
		PaidDate: paidDate, ShippedDate: shippedDate, DeliveredDate: deliveredDate,
		CancelledDate: cancelledDate, RefundedDate: refundedDate,
		CancellationReason: cancellationReason, RefundReason: refundReason,
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, isbn, seller_id, quantity, unit_price::text, currency, item_status
		FROM order_items
		WHERE order_id = $1
		ORDER BY isbn, seller_id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID    uuid.UUID
			isbnRaw   string
			sellerID  string
			quantity  int
			unitPrice string
			itCur     string
			itStatus  order.ItemStatus
		)
		if err := rows.Scan(&itemID, &isbnRaw, &sellerID, &quantity, &unitPrice, &itCur, &itStatus); err != nil {
			return nil, err
		}
		isbn, err := order.NewISBN(isbnRaw)
		if err != nil {
			return nil, err
		}
		price, err := money.New(unitPrice, itCur)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, order.OrderItem{
			ID: itemID, ISBN: isbn, SellerID: sellerID, Quantity: quantity, UnitPrice: price, ItemStatus: itStatus,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return o, nil
}

func (r *Postgres) Update(ctx context.Context, tx pgx.Tx, o *order.Order, expectedVersion int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $3, version = $4,
		    paid_date = $5, shipped_date = $6, delivered_date = $7, cancelled_date = $8, refunded_date = $9,
		    cancellation_reason = $10, refund_reason = $11
		WHERE id = $1 AND version = $2
	`, o.ID, expectedVersion, o.Status, o.Version,
		o.PaidDate, o.ShippedDate, o.DeliveredDate, o.CancelledDate, o.RefundedDate,
		nullIfEmpty(o.CancellationReason), nullIfEmpty(o.RefundReason))
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return order.ErrInvalidTransition
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			UPDATE order_items SET item_status = $3 WHERE order_id = $1 AND id = $2
		`, o.ID, it.ID, it.ItemStatus); err != nil {
			return err
		}
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
