package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/catlog/internal/client/models"
)

func (c *HTTPClient) ListEntries(ctx context.Context) ([]models.CatEntry, error) {
	b, err := c.doJSON(ctx, http.MethodGet, "/catEntry/list", nil)
	if err != nil {
		return nil, err
	}

	var entries []models.CatEntry
	if err := decodePayload(b, &entries); err != nil {
		return nil, fmt.Errorf("decode entry list: %w", err)
	}
	return entries, nil
}

func (c *HTTPClient) GetEntry(ctx context.Context, id int64) (*models.CatEntry, error) {
	b, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/catEntry/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var e models.CatEntry
	if err := decodePayload(b, &e); err != nil {
		return nil, fmt.Errorf("decode entry %d: %w", id, err)
	}
	return &e, nil
}

func (c *HTTPClient) CreateEntry(ctx context.Context, in models.CatEntryCreate) (json.RawMessage, error) {
	b, err := c.doJSON(ctx, http.MethodPost, "/catEntry/create", in)
	if err != nil {
		return nil, err
	}
	return Unwrap(b), nil
}

func (c *HTTPClient) UpdateEntry(ctx context.Context, in models.CatEntryUpdate) (json.RawMessage, error) {
	b, err := c.doJSON(ctx, http.MethodPut, "/catEntry/update", in)
	if err != nil {
		return nil, err
	}
	return Unwrap(b), nil
}

func (c *HTTPClient) DeleteEntry(ctx context.Context, id int64) (json.RawMessage, error) {
	b, err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/catEntry/delete/%d", id), nil)
	if err != nil {
		return nil, err
	}
	return Unwrap(b), nil
}
