package repository

import (
	"context"
	"fmt"
	"net/http"

	"noteshare-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type AuthTokenRepository interface {
	Create(token *domain.AuthToken) error
	FindByUserID(userID string) (*domain.AuthToken, error)
	FindByToken(token string) (*domain.AuthToken, error)
}

type authTokenRepository struct {
	client *kivik.Client
	dbName string
}

func NewAuthTokenRepository(client *kivik.Client, dbName string) AuthTokenRepository {
	return &authTokenRepository{
		client: client,
		dbName: dbName,
	}
}

// Create stores the single token document for a user. The doc ID is keyed by
// user, which is what makes issuance idempotent: a second mint for the same
// user would conflict instead of silently multiplying credentials.
func (r *authTokenRepository) Create(token *domain.AuthToken) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("auth_token:%s", token.UserID)
	_, err := db.Put(context.Background(), docID, token)
	if err != nil {
		return fmt.Errorf("failed to create auth token: %w", err)
	}

	return nil
}

func (r *authTokenRepository) FindByUserID(userID string) (*domain.AuthToken, error) {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("auth_token:%s", userID)
	row := db.Get(context.Background(), docID)

	var token domain.AuthToken
	if err := row.ScanDoc(&token); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find auth token: %w", err)
	}

	return &token, nil
}

func (r *authTokenRepository) FindByToken(token string) (*domain.AuthToken, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"token": token,
		},
		"limit": 1,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query auth token: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrNotFound
	}

	var authToken domain.AuthToken
	if err := rows.ScanDoc(&authToken); err != nil {
		return nil, fmt.Errorf("failed to scan auth token: %w", err)
	}

	return &authToken, nil
}
