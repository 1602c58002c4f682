// Package token persists the session bearer token and inspects its claims.
//
// The token is stored as a single string under common.TokenStorageKey in the
// local metadata table. Claims are decoded without signature verification:
// the client never holds the signing key and only needs the exp claim to
// avoid presenting a credential it already knows to be stale.
package token

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/catlog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/catlog/internal/common"
	"github.com/dmitrijs2005/catlog/internal/dbx"
	"github.com/golang-jwt/jwt/v5"
)

// Store is the durable home of the session token.
type Store struct {
	db   *sql.DB
	repo metadata.Repository
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, repo: metadata.NewSQLiteRepository(db)}
}

// Load returns the persisted token or "" if none is stored.
func (s *Store) Load(ctx context.Context) (string, error) {
	return s.get(ctx, common.TokenStorageKey)
}

// Legacy returns the token left under the secondary key, or "".
func (s *Store) Legacy(ctx context.Context) (string, error) {
	return s.get(ctx, common.LegacyTokenStorageKey)
}

func (s *Store) Save(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("refusing to persist empty token")
	}
	return s.repo.Set(ctx, common.TokenStorageKey, []byte(token))
}

// Delete removes the primary and the legacy token in one transaction.
// Deleting an absent token is not an error.
func (s *Store) Delete(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).Delete(ctx, common.TokenStorageKey, common.LegacyTokenStorageKey)
	})
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	v, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// Expiry reports the exp claim of token. ok is false when the claim is absent.
// Only the payload segment is decoded; the header and signature are ignored.
// A token whose payload cannot be decoded yields an error wrapping
// common.ErrMalformedToken; that is not the same as being expired.
func Expiry(token string) (exp time.Time, ok bool, err error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return time.Time{}, false, fmt.Errorf("%w: token has %d segment(s)", common.ErrMalformedToken, len(parts))
	}

	raw, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
	}

	nd, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
	}
	if nd == nil {
		return time.Time{}, false, nil
	}
	return nd.Time, true, nil
}

// IsExpired is true only for a decodable token whose exp lies strictly
// before now. Undecodable tokens and tokens without exp are not expired.
func IsExpired(token string, now time.Time) bool {
	exp, ok, err := Expiry(token)
	if err != nil || !ok {
		return false
	}
	return exp.Before(now)
}
