package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/catlog/internal/client/client"
	"github.com/dmitrijs2005/catlog/internal/client/models"
)

// CredentialSource lists the stored tokens an upload may fall back to.
type CredentialSource interface {
	Load(ctx context.Context) (string, error)
	Legacy(ctx context.Context) (string, error)
}

// EntryStore proxies the cat entry API for the views and keeps the last
// fetched list and the last fetched entry. The copies are transient; nothing
// tracks whether they are stale.
type EntryStore struct {
	api    client.EntryAPI
	tokens CredentialSource
	creds  client.Credentials

	mu       sync.RWMutex
	entries  []models.CatEntry
	selected *models.CatEntry
}

func NewEntryStore(api client.EntryAPI, tokens CredentialSource, creds client.Credentials) *EntryStore {
	return &EntryStore{api: api, tokens: tokens, creds: creds}
}

func (s *EntryStore) FetchAll(ctx context.Context) ([]models.CatEntry, error) {
	list, err := s.api.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.entries = list
	s.mu.Unlock()
	return list, nil
}

func (s *EntryStore) FetchByID(ctx context.Context, id int64) (*models.CatEntry, error) {
	e, err := s.api.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.selected = e
	s.mu.Unlock()
	return e, nil
}

// Entries returns the list cached by the last FetchAll.
func (s *EntryStore) Entries() []models.CatEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CatEntry(nil), s.entries...)
}

// Selected returns the entry cached by the last FetchByID, or nil.
func (s *EntryStore) Selected() *models.CatEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	e := *s.selected
	return &e
}

func (s *EntryStore) Create(ctx context.Context, in models.CatEntryCreate) (json.RawMessage, error) {
	return s.api.CreateEntry(ctx, in)
}

func (s *EntryStore) Update(ctx context.Context, in models.CatEntryUpdate) (json.RawMessage, error) {
	return s.api.UpdateEntry(ctx, in)
}

func (s *EntryStore) Remove(ctx context.Context, id int64) (json.RawMessage, error) {
	return s.api.DeleteEntry(ctx, id)
}

// UploadImage sends img using the credential picked by UploadToken.
func (s *EntryStore) UploadImage(ctx context.Context, img client.Image, meta models.UploadMetadata, passed string) (*models.UploadResult, error) {
	tok, err := s.UploadToken(ctx, passed)
	if err != nil {
		return nil, err
	}
	return s.api.UploadImage(ctx, img, meta, tok)
}

// UploadToken picks the credential for an upload, first non-empty wins:
// the explicitly passed token, the primary stored token, the legacy stored
// token, then the credential attached for this process.
func (s *EntryStore) UploadToken(ctx context.Context, passed string) (string, error) {
	if passed != "" {
		return passed, nil
	}

	for _, load := range []func(context.Context) (string, error){s.tokens.Load, s.tokens.Legacy} {
		tok, err := load(ctx)
		if err != nil {
			return "", fmt.Errorf("resolve upload token: %w", err)
		}
		if tok != "" {
			return tok, nil
		}
	}

	if tok := s.creds.AuthToken(); tok != "" {
		return tok, nil
	}
	return "", client.ErrNoCredentials
}
