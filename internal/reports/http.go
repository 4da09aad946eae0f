package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type HTTPConfig struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// HTTPSource reads decrypted reports from a report relay that holds the
// accounts and key material for each accessory.
type HTTPSource struct {
	baseURL string
	token   string
	client  *http.Client
}

type reportsResponse struct {
	Reports []LocationReport `json:"reports"`
}

func NewHTTPSource(cfg HTTPConfig) *HTTPSource {
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  client,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, device Device, start, end time.Time) ([]LocationReport, error) {
	const fn = "HTTPSource:Fetch"
	q := url.Values{}
	q.Set("start", start.UTC().Format(time.RFC3339))
	q.Set("end", end.UTC().Format(time.RFC3339))
	endpoint := fmt.Sprintf("%s/v1/accessories/%s/reports?%s", s.baseURL, url.PathEscape(device.Accessory), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s:%w:%w", fn, ErrFetchReports, err)
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s:%w:%w", fn, ErrFetchReports, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s:%w:status %d: %s", fn, ErrFetchReports, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out reportsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s:%w:%w", fn, ErrDecodeReport, err)
	}
	return out.Reports, nil
}
