// Package memory provides map-backed repositories used by tests and by
// local development without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/repository"
	"github.com/gearflip/resaleapi/pkg/errors"
)

// NewRepositories builds a fully in-memory repository set
func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		Inventory:    NewInventoryRepository(),
		Return:       NewReturnRepository(),
		Notification: NewNotificationRepository(),
		User:         NewUserRepository(),
	}
}

type InventoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]domain.InventoryItem
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{items: make(map[uuid.UUID]domain.InventoryItem)}
}

func (r *InventoryRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "inventory item", ID: id.String()}
	}
	return cloneItem(item), nil
}

func (r *InventoryRepository) GetBySKU(_ context.Context, userID uuid.UUID, sku string) (*domain.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.UserID == userID && item.SKU == sku {
			return cloneItem(item), nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "inventory item", ID: sku}
}

func (r *InventoryRepository) GetByOrderID(_ context.Context, userID uuid.UUID, orderID string) (*domain.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.UserID == userID && item.OrderID != nil && *item.OrderID == orderID {
			return cloneItem(item), nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "inventory item", ID: orderID}
}

func (r *InventoryRepository) GetByEbayID(_ context.Context, userID uuid.UUID, ebayID string) (*domain.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.UserID == userID && item.EbayID != nil && *item.EbayID == ebayID {
			return cloneItem(item), nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "inventory item", ID: ebayID}
}

func (r *InventoryRepository) ListSoldInPriceWindow(_ context.Context, userID uuid.UUID, minPrice, maxPrice float64, from, to time.Time) ([]*domain.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.InventoryItem
	for _, item := range r.items {
		if item.UserID != userID || !item.Sold || item.PriceSold == nil || item.DateSold == nil {
			continue
		}
		if *item.PriceSold < minPrice || *item.PriceSold > maxPrice {
			continue
		}
		if item.DateSold.Before(from) || item.DateSold.After(to) {
			continue
		}
		out = append(out, cloneItem(item))
	}
	sortByDateSoldDesc(out)
	return out, nil
}

func (r *InventoryRepository) ListSoldByBuyer(_ context.Context, userID uuid.UUID, buyer string) ([]*domain.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.InventoryItem
	for _, item := range r.items {
		if item.UserID != userID || !item.Sold || item.Buyer == nil {
			continue
		}
		if strings.EqualFold(*item.Buyer, buyer) {
			out = append(out, cloneItem(item))
		}
	}
	sortByDateSoldDesc(out)
	return out, nil
}

func (r *InventoryRepository) List(_ context.Context, userID uuid.UUID, limit, offset int) ([]*domain.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.InventoryItem
	for _, item := range r.items {
		if item.UserID == userID {
			out = append(out, cloneItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *InventoryRepository) Create(_ context.Context, item *domain.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	r.items[item.ID] = *cloneItem(*item)
	return nil
}

func (r *InventoryRepository) Update(_ context.Context, item *domain.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return &errors.ErrNotFound{Resource: "inventory item", ID: item.ID.String()}
	}
	item.UpdatedAt = time.Now()
	r.items[item.ID] = *cloneItem(*item)
	return nil
}

type ReturnRepository struct {
	mu      sync.RWMutex
	returns map[uuid.UUID]domain.Return
}

func NewReturnRepository() *ReturnRepository {
	return &ReturnRepository{returns: make(map[uuid.UUID]domain.Return)}
}

func (r *ReturnRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Return, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret, ok := r.returns[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "return", ID: id.String()}
	}
	return cloneReturn(ret), nil
}

func (r *ReturnRepository) GetByEbayReturnID(_ context.Context, userID uuid.UUID, ebayReturnID string) (*domain.Return, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ret := range r.returns {
		if ret.UserID == userID && ret.EbayReturnID == ebayReturnID {
			return cloneReturn(ret), nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "return", ID: ebayReturnID}
}

func (r *ReturnRepository) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Return, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Return
	for _, ret := range r.returns {
		if ret.UserID == userID {
			out = append(out, cloneReturn(ret))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *ReturnRepository) ListUnprocessed(_ context.Context, userID uuid.UUID) ([]*domain.Return, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Return
	for _, ret := range r.returns {
		if ret.UserID == userID && !ret.AutoProcessed {
			out = append(out, cloneReturn(ret))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *ReturnRepository) Create(_ context.Context, ret *domain.Return) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	if ret.CreatedAt.IsZero() {
		ret.CreatedAt = now
	}
	if ret.LastSync.IsZero() {
		ret.LastSync = now
	}
	ret.UpdatedAt = now
	r.returns[ret.ID] = *cloneReturn(*ret)
	return nil
}

func (r *ReturnRepository) Update(_ context.Context, ret *domain.Return) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.returns[ret.ID]; !ok {
		return &errors.ErrNotFound{Resource: "return", ID: ret.ID.String()}
	}
	ret.UpdatedAt = time.Now()
	r.returns[ret.ID] = *cloneReturn(*ret)
	return nil
}

func (r *ReturnRepository) TouchLastSync(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret, ok := r.returns[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "return", ID: id.String()}
	}
	ret.LastSync = at
	r.returns[id] = ret
	return nil
}

type NotificationRepository struct {
	mu            sync.Mutex
	notifications []domain.Notification
	seen          map[string]bool
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{seen: make(map[string]bool)}
}

func (r *NotificationRepository) Create(_ context.Context, n *domain.Notification) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := n.UserID.String() + "|" + n.Type + "|" + n.ExternalID
	if r.seen[key] {
		return false, nil
	}
	r.seen[key] = true
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.notifications = append(r.notifications, *n)
	return true, nil
}

func (r *NotificationRepository) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if r.notifications[i].UserID != userID {
			continue
		}
		n := r.notifications[i]
		out = append(out, &n)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]domain.User)}
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "user", ID: id.String()}
	}
	return &user, nil
}

// GetByAPIKey matches on the stored hash directly; tests store the raw key
// in APIKeyHash instead of a bcrypt hash.
func (r *UserRepository) GetByAPIKey(_ context.Context, apiKey string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.IsActive && user.APIKeyHash == apiKey {
			u := user
			return &u, nil
		}
	}
	return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
}

func (r *UserRepository) ListActive(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.User
	for _, user := range r.users {
		if user.IsActive {
			u := user
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return &errors.ErrNotFound{Resource: "user", ID: user.ID.String()}
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func cloneItem(item domain.InventoryItem) *domain.InventoryItem {
	out := item
	out.AdditionalCosts = append([]domain.AdditionalCost(nil), item.AdditionalCosts...)
	return &out
}

func cloneReturn(ret domain.Return) *domain.Return {
	out := ret
	out.StatusHistory = append([]domain.StatusEvent(nil), ret.StatusHistory...)
	return &out
}

func sortByDateSoldDesc(items []*domain.InventoryItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].DateSold == nil || items[j].DateSold == nil {
			return items[j].DateSold == nil
		}
		return items[i].DateSold.After(*items[j].DateSold)
	})
}
