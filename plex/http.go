package plex

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// httpRequest sends a HTTP request according to provided method and url,
// decoding the response as JSON or XML
func httpRequest[V any](ctx context.Context, client *http.Client, method string, url string, headers map[string]string) (*V, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d for url %s", resp.StatusCode, req.URL.String())
	}

	t, _, err := mime.ParseMediaType(resp.Header.Get("content-type"))

	var parsed V
	switch t {
	case "application/json":
		err = json.NewDecoder(resp.Body).Decode(&parsed)
	case "application/xml", "text/xml":
		err = xml.NewDecoder(resp.Body).Decode(&parsed)
	default:
		err = fmt.Errorf("unexpected content-type: %s", t)
	}
	return &parsed, err
}

// sendRequest sends a HTTP request and returns the raw response body.
// Any status outside the 2xx range is an error.
func sendRequest(ctx context.Context, client *http.Client, method string, url string, headers map[string]string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, nil, err
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, body, fmt.Errorf("http status %d for url %s", resp.StatusCode, req.URL.String())
	}
	return resp, body, nil
}
