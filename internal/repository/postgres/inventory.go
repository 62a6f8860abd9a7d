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

const inventoryColumns = `
	id, user_id, sku, ebay_id, title, listed, sold, shipped, status,
	purchase_price, listed_price, price_sold, expected_profit, profit, roi,
	ebay_fees, shipping_cost, order_id, buyer, tracking_number,
	date_listed, date_sold, days_listed, additional_costs,
	automatic_return, return_date, return_count, has_active_return,
	last_returned_order, created_at, updated_at
`

type inventoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *sql.DB, logger *zap.Logger) *inventoryRepository {
	return &inventoryRepository{
		db:     db,
		logger: logger,
	}
}

func (r *inventoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE id = $1`

	item, err := scanInventoryItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "inventory item", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get inventory item by ID", zap.Error(err))
		return nil, err
	}

	return item, nil
}

func (r *inventoryRepository) GetBySKU(ctx context.Context, userID uuid.UUID, sku string) (*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE user_id = $1 AND sku = $2`

	item, err := scanInventoryItem(r.db.QueryRowContext(ctx, query, userID, sku))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "inventory item", ID: sku}
	}
	if err != nil {
		r.logger.Error("Failed to get inventory item by SKU", zap.Error(err))
		return nil, err
	}

	return item, nil
}

func (r *inventoryRepository) GetByOrderID(ctx context.Context, userID uuid.UUID, orderID string) (*domain.InventoryItem, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE user_id = $1 AND order_id = $2
		ORDER BY date_sold DESC NULLS LAST
		LIMIT 1
	`

	item, err := scanInventoryItem(r.db.QueryRowContext(ctx, query, userID, orderID))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "inventory item", ID: orderID}
	}
	if err != nil {
		r.logger.Error("Failed to get inventory item by order ID", zap.Error(err))
		return nil, err
	}

	return item, nil
}

func (r *inventoryRepository) GetByEbayID(ctx context.Context, userID uuid.UUID, ebayID string) (*domain.InventoryItem, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE user_id = $1 AND ebay_id = $2
		ORDER BY date_sold DESC NULLS LAST
		LIMIT 1
	`

	item, err := scanInventoryItem(r.db.QueryRowContext(ctx, query, userID, ebayID))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "inventory item", ID: ebayID}
	}
	if err != nil {
		r.logger.Error("Failed to get inventory item by listing ID", zap.Error(err))
		return nil, err
	}

	return item, nil
}

func (r *inventoryRepository) ListSoldInPriceWindow(ctx context.Context, userID uuid.UUID, minPrice, maxPrice float64, from, to time.Time) ([]*domain.InventoryItem, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE user_id = $1
		  AND sold = true
		  AND price_sold BETWEEN $2 AND $3
		  AND date_sold BETWEEN $4 AND $5
		ORDER BY date_sold DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, minPrice, maxPrice, from, to)
	if err != nil {
		r.logger.Error("Failed to list sold items in price window", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanInventoryItems(rows)
}

func (r *inventoryRepository) ListSoldByBuyer(ctx context.Context, userID uuid.UUID, buyer string) ([]*domain.InventoryItem, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE user_id = $1 AND sold = true AND lower(buyer) = lower($2)
		ORDER BY date_sold DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, buyer)
	if err != nil {
		r.logger.Error("Failed to list sold items by buyer", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanInventoryItems(rows)
}

func (r *inventoryRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.InventoryItem, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list inventory items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanInventoryItems(rows)
}

func (r *inventoryRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (` + inventoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)
	`

	now := time.Now()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	costs, err := json.Marshal(item.AdditionalCosts)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		item.ID, item.UserID, item.SKU, item.EbayID, item.Title,
		item.Listed, item.Sold, item.Shipped, string(item.Status),
		item.PurchasePrice, item.ListedPrice, item.PriceSold, item.ExpectedProfit,
		item.Profit, item.ROI, item.EbayFees, item.ShippingCost,
		item.OrderID, item.Buyer, item.TrackingNumber,
		item.DateListed, item.DateSold, item.DaysListed, costs,
		item.AutomaticReturn, item.ReturnDate, item.ReturnCount, item.HasActiveReturn,
		item.LastReturnedOrder, item.CreatedAt, item.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create inventory item", zap.Error(err))
		return err
	}

	return nil
}

// Update writes every mutable field in a single statement. Return processing
// relies on this being one atomic write per item.
func (r *inventoryRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		UPDATE inventory_items
		SET sku = $2, ebay_id = $3, title = $4, listed = $5, sold = $6,
		    shipped = $7, status = $8, purchase_price = $9, listed_price = $10,
		    price_sold = $11, expected_profit = $12, profit = $13, roi = $14,
		    ebay_fees = $15, shipping_cost = $16, order_id = $17, buyer = $18,
		    tracking_number = $19, date_listed = $20, date_sold = $21,
		    days_listed = $22, additional_costs = $23, automatic_return = $24,
		    return_date = $25, return_count = $26, has_active_return = $27,
		    last_returned_order = $28, updated_at = $29
		WHERE id = $1
	`

	item.UpdatedAt = time.Now()

	costs, err := json.Marshal(item.AdditionalCosts)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		item.ID, item.SKU, item.EbayID, item.Title, item.Listed, item.Sold,
		item.Shipped, string(item.Status), item.PurchasePrice, item.ListedPrice,
		item.PriceSold, item.ExpectedProfit, item.Profit, item.ROI,
		item.EbayFees, item.ShippingCost, item.OrderID, item.Buyer,
		item.TrackingNumber, item.DateListed, item.DateSold,
		item.DaysListed, costs, item.AutomaticReturn,
		item.ReturnDate, item.ReturnCount, item.HasActiveReturn,
		item.LastReturnedOrder, item.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update inventory item", zap.Error(err))
		return err
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInventoryItem(row rowScanner) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	var status string
	var ebayID, orderID, buyer, trackingNumber, lastReturnedOrder sql.NullString
	var listedPrice, priceSold, expectedProfit, profit, roi, ebayFees, shippingCost sql.NullFloat64
	var dateListed, dateSold, returnDate sql.NullTime
	var daysListed sql.NullInt64
	var automaticReturn sql.NullBool
	var costs []byte

	err := row.Scan(
		&item.ID, &item.UserID, &item.SKU, &ebayID, &item.Title,
		&item.Listed, &item.Sold, &item.Shipped, &status,
		&item.PurchasePrice, &listedPrice, &priceSold, &expectedProfit,
		&profit, &roi, &ebayFees, &shippingCost,
		&orderID, &buyer, &trackingNumber,
		&dateListed, &dateSold, &daysListed, &costs,
		&automaticReturn, &returnDate, &item.ReturnCount, &item.HasActiveReturn,
		&lastReturnedOrder, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Status = domain.ItemStatus(status)
	item.EbayID = fromNullString(ebayID)
	item.OrderID = fromNullString(orderID)
	item.Buyer = fromNullString(buyer)
	item.TrackingNumber = fromNullString(trackingNumber)
	item.LastReturnedOrder = fromNullString(lastReturnedOrder)
	item.ListedPrice = fromNullFloat(listedPrice)
	item.PriceSold = fromNullFloat(priceSold)
	item.ExpectedProfit = fromNullFloat(expectedProfit)
	item.Profit = fromNullFloat(profit)
	item.ROI = fromNullFloat(roi)
	item.EbayFees = fromNullFloat(ebayFees)
	item.ShippingCost = fromNullFloat(shippingCost)
	item.DateListed = fromNullTime(dateListed)
	item.DateSold = fromNullTime(dateSold)
	item.ReturnDate = fromNullTime(returnDate)
	item.DaysListed = fromNullInt(daysListed)
	item.AutomaticReturn = fromNullBool(automaticReturn)

	if len(costs) > 0 {
		if err := json.Unmarshal(costs, &item.AdditionalCosts); err != nil {
			return nil, err
		}
	}

	return &item, nil
}

func scanInventoryItems(rows *sql.Rows) ([]*domain.InventoryItem, error) {
	var items []*domain.InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func fromNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func fromNullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func fromNullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	return &v.Bool
}
