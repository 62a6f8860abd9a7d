package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/pkg/errors"
)

type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

func (r *userRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.User, error) {
	// Since bcrypt hashes are salted and different each time, we can't do a
	// direct lookup. We iterate through active users and verify the API key
	// against each hash.
	query := `
		SELECT id, name, api_key_hash, ebay_auth_token, settings, is_active, created_at, updated_at
		FROM users
		WHERE is_active = true
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			continue
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.APIKeyHash), []byte(apiKey)); err == nil {
			return user, nil
		}
	}

	return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, name, api_key_hash, ebay_auth_token, settings, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "user", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get user by ID", zap.Error(err))
		return nil, err
	}

	return user, nil
}

func (r *userRepository) ListActive(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT id, name, api_key_hash, ebay_auth_token, settings, is_active, created_at, updated_at
		FROM users
		WHERE is_active = true
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list active users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, api_key_hash, ebay_auth_token, settings, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	now := time.Now()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	settings, err := json.Marshal(user.Settings)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.APIKeyHash, user.EbayAuthToken,
		settings, user.IsActive, user.CreatedAt, user.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create user", zap.Error(err))
		return err
	}

	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, api_key_hash = $3, ebay_auth_token = $4, settings = $5,
		    is_active = $6, updated_at = $7
		WHERE id = $1
	`

	user.UpdatedAt = time.Now()

	settings, err := json.Marshal(user.Settings)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.APIKeyHash, user.EbayAuthToken,
		settings, user.IsActive, user.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update user", zap.Error(err))
		return err
	}

	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var ebayToken sql.NullString
	var settings []byte

	err := row.Scan(
		&user.ID, &user.Name, &user.APIKeyHash, &ebayToken,
		&settings, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.EbayAuthToken = fromNullString(ebayToken)

	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &user.Settings); err != nil {
			return nil, err
		}
	}

	return &user, nil
}
