// Package models defines the client-side shapes exchanged with the catlog
// backend.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Session is the in-memory representation of the authenticated user. A nil
// *Session means nobody is logged in.
type Session struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Token    string `json:"token,omitempty"`
}

// UserID holds the backend's user identifier in its textual form. The
// backend may send it as a JSON number or a string.
type UserID string

func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = UserID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("user id: %w", err)
		}
		*id = UserID(n.String())
	}
	return nil
}

// Int64 returns the id as a number when it is a positive integer.
func (id UserID) Int64() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (id UserID) String() string { return string(id) }
