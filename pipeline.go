package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// ErrMissingInput marks a failed presence check on user input or keys
var ErrMissingInput = errors.New("missing input")

// Request is one keyword run as asked for by the web form or the CLI
type Request struct {
	Keyword       string   `json:"keyword"`
	Tags          []string `json:"tags"`
	Results       int      `json:"results"`
	FragmentLimit *int     `json:"fragmentLimit,omitempty"`
	WithBrief     bool     `json:"withBrief"`
	SearchKey     string   `json:"searchKey,omitempty"`
	LLMKey        string   `json:"llmKey,omitempty"`
}

// BriefService runs search, scrape and brief for a keyword
type BriefService struct {
	cfg            *Config
	fetcher        Fetcher
	logger         *log.Logger
	newSearcher    func(ctx context.Context, apiKey string) (Searcher, error)
	newBriefWriter func(apiKey string) (BriefWriter, error)
}

func NewBriefService(cfg *Config, fetcher Fetcher, logger *log.Logger) *BriefService {
	s := &BriefService{cfg: cfg, fetcher: fetcher, logger: logger}
	s.newSearcher = func(ctx context.Context, apiKey string) (Searcher, error) {
		return NewSearcher(ctx, cfg, apiKey, logger)
	}
	s.newBriefWriter = func(apiKey string) (BriefWriter, error) {
		return NewBriefWriter(cfg, apiKey, logger)
	}
	return s
}

// NewSearcher picks the SERP client for the configured provider
func NewSearcher(ctx context.Context, cfg *Config, apiKey string, logger *log.Logger) (Searcher, error) {
	switch cfg.SearchProvider {
	case "google":
		return NewGoogleSearchClient(ctx, apiKey, cfg.GoogleEngineID, logger)
	default:
		return NewSerperClient(apiKey, logger)
	}
}

func (s *BriefService) validate(req *Request) error {
	req.Keyword = strings.TrimSpace(req.Keyword)
	req.Tags = NormalizeTags(req.Tags)

	if req.Keyword == "" {
		return fmt.Errorf("%w: please enter a keyword", ErrMissingInput)
	}
	if len(req.Tags) == 0 {
		return fmt.Errorf("%w: please select at least one tag", ErrMissingInput)
	}
	if req.SearchKey == "" {
		req.SearchKey = s.cfg.SearchKey()
	}
	if req.SearchKey == "" {
		return fmt.Errorf("%w: please provide the SERP API key", ErrMissingInput)
	}
	if req.WithBrief {
		if !s.cfg.BriefsEnabled() {
			return fmt.Errorf("%w: briefs are disabled (BRIEF_PROVIDER=none)", ErrMissingInput)
		}
		if req.LLMKey == "" {
			req.LLMKey = s.cfg.LLMKey()
		}
		if req.LLMKey == "" {
			return fmt.Errorf("%w: please provide the %s API key", ErrMissingInput, s.cfg.BriefProvider)
		}
	}
	if req.Results <= 0 {
		req.Results = s.cfg.ResultCount
	}
	if req.Results > maxResultCount {
		req.Results = maxResultCount
	}
	return nil
}

// Run executes one keyword run. A brief failure does not fail the run; it is
// recorded on the report next to the scraped data.
func (s *BriefService) Run(ctx context.Context, req Request) (*ContentReport, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	limit := s.cfg.FragmentLimit
	if req.FragmentLimit != nil && *req.FragmentLimit >= 0 {
		limit = *req.FragmentLimit
	}

	report := &ContentReport{
		ID:        uuid.New(),
		Keyword:   req.Keyword,
		Tags:      req.Tags,
		CreatedAt: time.Now().UTC(),
	}
	logger := s.logger.With("run", report.ID.String())
	logger.Info("starting run", "keyword", req.Keyword, "tags", strings.Join(req.Tags, ","), "results", req.Results, "limit", limit)

	searcher, err := s.newSearcher(ctx, req.SearchKey)
	if err != nil {
		return nil, err
	}
	links, err := searcher.TopLinks(ctx, req.Keyword, req.Results)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("no search results for %q", req.Keyword)
	}
	logger.Info("search complete", "links", len(links))

	report.Sites = ScrapeSites(ctx, s.fetcher, links, req.Tags, limit, logger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if req.WithBrief {
		s.writeBrief(ctx, report, req.LLMKey, logger)
	}

	logger.Info("run complete", "sites", len(report.Sites), "brief", report.Brief != "")
	return report, nil
}

func (s *BriefService) writeBrief(ctx context.Context, report *ContentReport, apiKey string, logger *log.Logger) {
	writer, err := s.newBriefWriter(apiKey)
	if err != nil {
		logger.Error("brief writer unavailable", "err", err)
		report.BriefError = err.Error()
		return
	}
	report.BriefModel = writer.Model()

	brief, err := writer.WriteBrief(ctx, report.Keyword, report.Sites)
	if err != nil {
		logger.Error("brief generation failed", "model", writer.Model(), "err", err)
		report.BriefError = err.Error()
		return
	}
	report.Brief = brief
}
