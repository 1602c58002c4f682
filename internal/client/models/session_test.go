package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserID_Decode(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    UserID
		num     int64
		numeric bool
	}{
		{name: "number", payload: `{"id":42}`, want: "42", num: 42, numeric: true},
		{name: "numeric string", payload: `{"id":"7"}`, want: "7", num: 7, numeric: true},
		{name: "object id", payload: `{"id":"64f0c0ffee"}`, want: "64f0c0ffee"},
		{name: "uuid", payload: `{"id":"0d7c6f5e-8a1b-4f7e-9a55-3c2b1a0f9e88"}`, want: "0d7c6f5e-8a1b-4f7e-9a55-3c2b1a0f9e88"},
		{name: "null", payload: `{"id":null}`, want: ""},
		{name: "absent", payload: `{}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Session
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &s))
			assert.Equal(t, tt.want, s.ID)
			n, ok := s.ID.Int64()
			assert.Equal(t, tt.numeric, ok)
			assert.Equal(t, tt.num, n)
		})
	}
}

func TestUserID_RejectsOtherShapes(t *testing.T) {
	var s Session
	require.Error(t, json.Unmarshal([]byte(`{"id":{"oid":1}}`), &s))
	require.Error(t, json.Unmarshal([]byte(`{"id":true}`), &s))
}
