// Package netx holds small HTTP helpers that do not belong to the API client.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Fetch GETs url and returns the response body for the caller to close.
// Anything but 200 OK is an error carrying the start of the body.
func Fetch(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch failed: %s; body: %s", resp.Status, string(b))
	}
	return resp.Body, nil
}
