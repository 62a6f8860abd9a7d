package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gearflip/resaleapi/internal/domain"
)

// InventoryRepository provides access to inventory item records
type InventoryRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
	GetBySKU(ctx context.Context, userID uuid.UUID, sku string) (*domain.InventoryItem, error)
	GetByOrderID(ctx context.Context, userID uuid.UUID, orderID string) (*domain.InventoryItem, error)
	GetByEbayID(ctx context.Context, userID uuid.UUID, ebayID string) (*domain.InventoryItem, error)
	ListSoldInPriceWindow(ctx context.Context, userID uuid.UUID, minPrice, maxPrice float64, from, to time.Time) ([]*domain.InventoryItem, error)
	ListSoldByBuyer(ctx context.Context, userID uuid.UUID, buyer string) ([]*domain.InventoryItem, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.InventoryItem, error)
	Create(ctx context.Context, item *domain.InventoryItem) error
	// Update replaces the whole record in one statement so a crash cannot
	// leave an item with partially applied return mutations.
	Update(ctx context.Context, item *domain.InventoryItem) error
}

// ReturnRepository provides access to return records
type ReturnRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Return, error)
	GetByEbayReturnID(ctx context.Context, userID uuid.UUID, ebayReturnID string) (*domain.Return, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Return, error)
	ListUnprocessed(ctx context.Context, userID uuid.UUID) ([]*domain.Return, error)
	Create(ctx context.Context, ret *domain.Return) error
	Update(ctx context.Context, ret *domain.Return) error
	TouchLastSync(ctx context.Context, id uuid.UUID, at time.Time) error
}

// NotificationRepository provides access to notification records.
// Create reports created=false when the (user, type, external id) triple
// already exists; the unique constraint makes dedup race-free.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) (created bool, err error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error)
}

// UserRepository provides access to user accounts
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.User, error)
	ListActive(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
}

// Repositories bundles all repositories for injection
type Repositories struct {
	Inventory    InventoryRepository
	Return       ReturnRepository
	Notification NotificationRepository
	User         UserRepository
}
