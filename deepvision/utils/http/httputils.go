package httputils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError is returned for non-2xx responses so callers can branch on the
// upstream status code (quota handling needs the raw 402).
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("bad status: %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("bad status: %d", e.Code)
}

func PostJSON(url string, body interface{}, resp interface{}) error {
	return PostJSONWithAuth(url, "", nil, body, resp)
}

func PostJSONWithAuth(url, apiKey string, headers map[string]string, body interface{}, resp interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if r.StatusCode < 200 || r.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
		return &StatusError{Code: r.StatusCode, Body: string(raw)}
	}
	if resp != nil {
		return json.NewDecoder(r.Body).Decode(resp)
	}
	return nil
}
