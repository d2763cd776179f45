package store

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/model"
	"github.com/sakif/snipspace/internal/repository"
	"github.com/sakif/snipspace/internal/rowstore"
)

const usersCollection = "users"

type UserStore struct {
	client rowstore.Client
}

var _ repository.UserRepository = (*UserStore)(nil)

func NewUserStore(client rowstore.Client) *UserStore {
	return &UserStore{client: client}
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	rows, err := s.client.Select(ctx, rowstore.Query{
		Collection: usersCollection,
		Filter:     rowstore.Eq("email", normalizeEmail(email)),
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NotFound("user", email)
	}
	return model.UserFromRow(rows[0])
}

func (s *UserStore) Create(ctx context.Context, email, displayName, passwordHash string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}

	row, err := s.client.Insert(ctx, usersCollection, rowstore.Row{
		"email":         email,
		"display_name":  strings.TrimSpace(displayName),
		"password_hash": passwordHash,
	})
	if err != nil {
		var remote *rowstore.RemoteError
		if errors.As(err, &remote) && remote.Code == http.StatusConflict {
			return nil, apperror.Conflict("user", email)
		}
		return nil, err
	}
	return model.UserFromRow(row)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
