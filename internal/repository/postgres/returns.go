package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/pkg/errors"
)

const returnColumns = `
	id, user_id, ebay_return_id, inventory_item_id, return_status,
	tracking_status, refund_status, return_reason, refund_amount,
	refund_currency, return_shipping_cost, seller_refund_amount,
	order_id, item_id, item_title, sku, buyer_login_name, buyer_comments,
	tracking_number, carrier, creation_date, ship_date, delivery_date,
	status_history, match_strategy, match_confidence, auto_processed,
	last_sync, created_at, updated_at
`

type returnRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReturnRepository creates a new return repository
func NewReturnRepository(db *sql.DB, logger *zap.Logger) *returnRepository {
	return &returnRepository{
		db:     db,
		logger: logger,
	}
}

func (r *returnRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Return, error) {
	query := `SELECT ` + returnColumns + ` FROM returns WHERE id = $1`

	ret, err := scanReturn(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "return", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get return by ID", zap.Error(err))
		return nil, err
	}

	return ret, nil
}

func (r *returnRepository) GetByEbayReturnID(ctx context.Context, userID uuid.UUID, ebayReturnID string) (*domain.Return, error) {
	query := `SELECT ` + returnColumns + ` FROM returns WHERE user_id = $1 AND ebay_return_id = $2`

	ret, err := scanReturn(r.db.QueryRowContext(ctx, query, userID, ebayReturnID))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "return", ID: ebayReturnID}
	}
	if err != nil {
		r.logger.Error("Failed to get return by external ID", zap.Error(err))
		return nil, err
	}

	return ret, nil
}

func (r *returnRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Return, error) {
	query := `
		SELECT ` + returnColumns + `
		FROM returns
		WHERE user_id = $1
		ORDER BY creation_date DESC NULLS LAST
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list returns", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanReturns(rows)
}

func (r *returnRepository) ListUnprocessed(ctx context.Context, userID uuid.UUID) ([]*domain.Return, error) {
	query := `
		SELECT ` + returnColumns + `
		FROM returns
		WHERE user_id = $1 AND auto_processed = false
		ORDER BY creation_date ASC NULLS LAST
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list unprocessed returns", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanReturns(rows)
}

func (r *returnRepository) Create(ctx context.Context, ret *domain.Return) error {
	query := `
		INSERT INTO returns (` + returnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)
	`

	now := time.Now()
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	if ret.CreatedAt.IsZero() {
		ret.CreatedAt = now
	}
	ret.UpdatedAt = now
	if ret.LastSync.IsZero() {
		ret.LastSync = now
	}

	history, err := json.Marshal(ret.StatusHistory)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		ret.ID, ret.UserID, ret.EbayReturnID, ret.InventoryItemID, string(ret.ReturnStatus),
		ret.TrackingStatus, ret.RefundStatus, ret.ReturnReason, ret.RefundAmount,
		ret.RefundCurrency, ret.ReturnShippingCost, ret.SellerRefundAmount,
		ret.OrderID, ret.ItemID, ret.ItemTitle, ret.SKU, ret.BuyerLoginName, ret.BuyerComments,
		ret.TrackingNumber, ret.Carrier, ret.CreationDate, ret.ShipDate, ret.DeliveryDate,
		history, ret.MatchStrategy, ret.MatchConfidence, ret.AutoProcessed,
		ret.LastSync, ret.CreatedAt, ret.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create return", zap.Error(err))
		return err
	}

	return nil
}

func (r *returnRepository) Update(ctx context.Context, ret *domain.Return) error {
	query := `
		UPDATE returns
		SET inventory_item_id = $2, return_status = $3, tracking_status = $4,
		    refund_status = $5, return_reason = $6, refund_amount = $7,
		    refund_currency = $8, return_shipping_cost = $9, seller_refund_amount = $10,
		    order_id = $11, item_id = $12, item_title = $13, sku = $14,
		    buyer_login_name = $15, buyer_comments = $16, tracking_number = $17,
		    carrier = $18, creation_date = $19, ship_date = $20, delivery_date = $21,
		    status_history = $22, match_strategy = $23, match_confidence = $24,
		    auto_processed = $25, last_sync = $26, updated_at = $27
		WHERE id = $1
	`

	ret.UpdatedAt = time.Now()

	history, err := json.Marshal(ret.StatusHistory)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		ret.ID, ret.InventoryItemID, string(ret.ReturnStatus), ret.TrackingStatus,
		ret.RefundStatus, ret.ReturnReason, ret.RefundAmount,
		ret.RefundCurrency, ret.ReturnShippingCost, ret.SellerRefundAmount,
		ret.OrderID, ret.ItemID, ret.ItemTitle, ret.SKU, ret.BuyerLoginName,
		ret.BuyerComments, ret.TrackingNumber, ret.Carrier,
		ret.CreationDate, ret.ShipDate, ret.DeliveryDate,
		history, ret.MatchStrategy, ret.MatchConfidence,
		ret.AutoProcessed, ret.LastSync, ret.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update return", zap.Error(err))
		return err
	}

	return nil
}

func (r *returnRepository) TouchLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE returns SET last_sync = $2 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		r.logger.Error("Failed to touch return sync timestamp", zap.Error(err))
		return err
	}

	return nil
}

func scanReturn(row rowScanner) (*domain.Return, error) {
	var ret domain.Return
	var status string
	var inventoryItemID *uuid.UUID
	var trackingStatus, refundStatus, returnReason sql.NullString
	var orderID, itemID, itemTitle, sku, buyerLoginName, buyerComments sql.NullString
	var trackingNumber, carrier, matchStrategy sql.NullString
	var refundAmount, returnShippingCost, sellerRefundAmount sql.NullFloat64
	var creationDate, shipDate, deliveryDate sql.NullTime
	var matchConfidence sql.NullInt64
	var history []byte

	err := row.Scan(
		&ret.ID, &ret.UserID, &ret.EbayReturnID, &inventoryItemID, &status,
		&trackingStatus, &refundStatus, &returnReason, &refundAmount,
		&ret.RefundCurrency, &returnShippingCost, &sellerRefundAmount,
		&orderID, &itemID, &itemTitle, &sku, &buyerLoginName, &buyerComments,
		&trackingNumber, &carrier, &creationDate, &shipDate, &deliveryDate,
		&history, &matchStrategy, &matchConfidence, &ret.AutoProcessed,
		&ret.LastSync, &ret.CreatedAt, &ret.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ret.ReturnStatus = domain.ReturnStatus(status)
	ret.InventoryItemID = inventoryItemID
	ret.TrackingStatus = fromNullString(trackingStatus)
	ret.RefundStatus = fromNullString(refundStatus)
	ret.ReturnReason = fromNullString(returnReason)
	ret.OrderID = fromNullString(orderID)
	ret.ItemID = fromNullString(itemID)
	ret.ItemTitle = fromNullString(itemTitle)
	ret.SKU = fromNullString(sku)
	ret.BuyerLoginName = fromNullString(buyerLoginName)
	ret.BuyerComments = fromNullString(buyerComments)
	ret.TrackingNumber = fromNullString(trackingNumber)
	ret.Carrier = fromNullString(carrier)
	ret.MatchStrategy = fromNullString(matchStrategy)
	ret.MatchConfidence = fromNullInt(matchConfidence)
	ret.RefundAmount = fromNullFloat(refundAmount)
	ret.ReturnShippingCost = fromNullFloat(returnShippingCost)
	ret.SellerRefundAmount = fromNullFloat(sellerRefundAmount)
	ret.CreationDate = fromNullTime(creationDate)
	ret.ShipDate = fromNullTime(shipDate)
	ret.DeliveryDate = fromNullTime(deliveryDate)

	if len(history) > 0 {
		if err := json.Unmarshal(history, &ret.StatusHistory); err != nil {
			return nil, err
		}
	}

	return &ret, nil
}

func scanReturns(rows *sql.Rows) ([]*domain.Return, error) {
	var returns []*domain.Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		returns = append(returns, ret)
	}
	return returns, rows.Err()
}
