package client

import (
	"context"
	"encoding/json"
	"io"

	"github.com/dmitrijs2005/catlog/internal/client/models"
)

// Credentials manages the default bearer token attached to every request.
type Credentials interface {
	SetAuthToken(token string)
	ClearAuthToken()
	AuthToken() string
}

// UserAPI maps the account endpoints. Payloads are returned already
// unwrapped (see Unwrap).
type UserAPI interface {
	Credentials
	Login(ctx context.Context, username, password string) (json.RawMessage, error)
	Register(ctx context.Context, username, email, password string) (json.RawMessage, error)
	Profile(ctx context.Context) (json.RawMessage, error)
}

// EntryAPI maps the cat entry endpoints. Mutations return the unwrapped
// response payload untouched since its shape is not part of the contract.
type EntryAPI interface {
	ListEntries(ctx context.Context) ([]models.CatEntry, error)
	GetEntry(ctx context.Context, id int64) (*models.CatEntry, error)
	CreateEntry(ctx context.Context, in models.CatEntryCreate) (json.RawMessage, error)
	UpdateEntry(ctx context.Context, in models.CatEntryUpdate) (json.RawMessage, error)
	DeleteEntry(ctx context.Context, id int64) (json.RawMessage, error)
	UploadImage(ctx context.Context, img Image, meta models.UploadMetadata, token string) (*models.UploadResult, error)
}

// Image is a named stream sent as the "image" part of an upload.
type Image struct {
	Name string
	Body io.Reader
}
