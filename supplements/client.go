// Package supplements fetches the supplement registry from the Cerbo EHR
// API. The registry is a secondary catalog consulted after the primary
// terminology; fetched records are shaped into regular catalog entries.
package supplements

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openmedrec/rxnorm-annotator/logging"
	"github.com/openmedrec/rxnorm-annotator/terminology/entities"
)

const (
	pageLimit = 100 // API maximum page size
	fetchCap  = 10000
	pageDelay = 500 * time.Millisecond
)

// Client is an authenticated Cerbo EHR API client.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

// supplementRecord is the API's wire shape for one supplement.
type supplementRecord struct {
	ID    int    `json:"supplement_id"`
	Name  string `json:"name"`
	Class string `json:"class"`
}

type supplementsPage struct {
	Data []supplementRecord `json:"data"`
}

// AuthHeader builds the Authorization header value from an API key or a
// username/password pair. A key already carrying a Basic prefix is used
// as-is; any other key is treated as a bearer token.
func AuthHeader(username, password, apiKey string) (string, error) {
	if apiKey != "" {
		if strings.HasPrefix(apiKey, "Basic ") {
			return apiKey, nil
		}
		return "Bearer " + apiKey, nil
	}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		return "Basic " + credentials, nil
	}
	return "", fmt.Errorf("either an API key or username/password must be provided")
}

// NewClient creates a Cerbo client for the given base URL and credentials.
func NewClient(baseURL, username, password, apiKey string) (*Client, error) {
	authHeader, err := AuthHeader(username, password, apiKey)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authHeader: authHeader,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// fetchPage retrieves one page of supplements.
func (c *Client) fetchPage(ctx context.Context, offset int) ([]supplementRecord, error) {
	endpoint := c.baseURL + "/api/v1/supplements"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build supplements request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")

	query := url.Values{}
	query.Set("limit", strconv.Itoa(pageLimit))
	query.Set("offset", strconv.Itoa(offset))
	query.Set("active_only", "true")
	req.URL.RawQuery = query.Encode()

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supplements request failed: %w", err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close supplements response body", "error", err)
		}
	}()

	switch response.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("supplements authentication failed, check credentials")
	case http.StatusNotFound:
		return nil, fmt.Errorf("supplements endpoint not found at %s", endpoint)
	default:
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return nil, fmt.Errorf("supplements request failed with status %d: %s", response.StatusCode, string(body))
	}

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read supplements response: %w", err)
	}

	// Some deployments wrap the list in a data envelope, some return a
	// bare array.
	var page supplementsPage
	if err := json.Unmarshal(payload, &page); err == nil && page.Data != nil {
		return page.Data, nil
	}
	var records []supplementRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("unexpected supplements response format: %w", err)
	}
	return records, nil
}

// FetchAll pages through the registry and returns every active supplement
// as a catalog entry. Fetching stops at the first short page or at the
// safety cap.
func (c *Client) FetchAll(ctx context.Context) ([]entities.Entry, error) {
	var all []entities.Entry

	for offset := 0; ; offset += pageLimit {
		if offset > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(pageDelay):
			}
		}

		records, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch supplements at offset %d: %w", offset, err)
		}
		if len(records) == 0 {
			break
		}

		for _, record := range records {
			if record.ID <= 0 || strings.TrimSpace(record.Name) == "" {
				continue
			}
			all = append(all, entities.Entry{
				RxCUI:    record.ID,
				Name:     record.Name,
				TermType: record.Class,
				Sources:  []string{"cerbo"},
				Priority: 1,
			})
		}

		if len(records) < pageLimit {
			break
		}
		if len(all) >= fetchCap {
			logging.Warn("Supplement fetch reached safety cap, stopping", "count", len(all))
			break
		}
	}

	logging.Info("Supplements fetched", "count", len(all))
	return all, nil
}
