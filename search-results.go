package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const serperSearchURL = "https://google.serper.dev/search"

// Searcher returns the top-ranking links for a keyword
type Searcher interface {
	TopLinks(ctx context.Context, keyword string, n int) ([]string, error)
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"organic"`
}

// SerperClient queries the serper.dev Google SERP API
type SerperClient struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
	Logger   *log.Logger
}

func NewSerperClient(apiKey string, logger *log.Logger) (*SerperClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: SERP API key", ErrMissingInput)
	}
	return &SerperClient{
		APIKey:   apiKey,
		Endpoint: serperSearchURL,
		Client:   http.DefaultClient,
		Logger:   logger,
	}, nil
}

// TopLinks asks for 20 organic results and keeps the first n links.
// A non-200 answer is logged and yields an empty list.
func (s *SerperClient) TopLinks(ctx context.Context, keyword string, n int) ([]string, error) {
	if n <= 0 {
		n = defaultResultCount
	}

	payload, err := json.Marshal(serperRequest{Q: keyword, Num: maxResultCount})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", keyword, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.Logger.Error("SERP API error", "keyword", keyword, "status", resp.StatusCode, "body", string(body))
		return []string{}, nil
	}

	var searchResp serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("parsing search response for %q: %w", keyword, err)
	}

	links := make([]string, 0, n)
	for _, item := range searchResp.Organic {
		if item.Link == "" {
			continue
		}
		links = append(links, item.Link)
		if len(links) == n {
			break
		}
	}

	s.Logger.Debug("search results", "keyword", keyword, "organic", len(searchResp.Organic), "kept", len(links))
	return links, nil
}

// GoogleSearchClient uses the Programmable Search (Custom Search JSON) API
type GoogleSearchClient struct {
	engineID string
	service  *customsearch.Service
	logger   *log.Logger
}

func NewGoogleSearchClient(ctx context.Context, apiKey, engineID string, logger *log.Logger, opts ...option.ClientOption) (*GoogleSearchClient, error) {
	if apiKey == "" || engineID == "" {
		return nil, fmt.Errorf("%w: GOOGLE_API_KEY and GOOGLE_SEARCH_ENGINE_ID", ErrMissingInput)
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating custom search service: %w", err)
	}

	return &GoogleSearchClient{engineID: engineID, service: svc, logger: logger}, nil
}

// TopLinks returns at most n links; the API serves 10 per call
func (g *GoogleSearchClient) TopLinks(ctx context.Context, keyword string, n int) ([]string, error) {
	if n <= 0 {
		n = defaultResultCount
	}
	if n > 10 {
		n = 10
	}

	resp, err := g.service.Cse.List().Cx(g.engineID).Q(keyword).Num(int64(n)).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			g.logger.Error("custom search error", "keyword", keyword, "status", apiErr.Code, "message", apiErr.Message)
			return []string{}, nil
		}
		return nil, fmt.Errorf("searching for %q: %w", keyword, err)
	}

	links := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Link == "" {
			continue
		}
		links = append(links, item.Link)
	}

	g.logger.Debug("search results", "keyword", keyword, "kept", len(links))
	return links, nil
}
