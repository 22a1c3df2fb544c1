package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	links   []string
	err     error
	keyword string
	n       int
}

func (s *stubSearcher) TopLinks(ctx context.Context, keyword string, n int) ([]string, error) {
	s.keyword, s.n = keyword, n
	return s.links, s.err
}

type stubBriefWriter struct {
	brief string
	err   error
	sites []SiteScrape
}

func (w *stubBriefWriter) WriteBrief(ctx context.Context, keyword string, sites []SiteScrape) (string, error) {
	w.sites = sites
	return w.brief, w.err
}

func (w *stubBriefWriter) Model() string { return "stub-model" }

type serviceFixture struct {
	service  *BriefService
	searcher *stubSearcher
	writer   *stubBriefWriter
	fetcher  *stubFetcher
	keys     []string
}

func newServiceFixture() *serviceFixture {
	cfg := &Config{
		SearchProvider: "serper",
		SerperAPIKey:   "env-serp",
		BriefProvider:  "openai",
		OpenAIAPIKey:   "env-llm",
		ResultCount:    5,
		FragmentLimit:  10,
	}
	f := &serviceFixture{
		searcher: &stubSearcher{links: []string{"https://a.example", "https://b.example"}},
		writer:   &stubBriefWriter{brief: "## Brief"},
		fetcher: &stubFetcher{pages: map[string]string{
			"https://a.example": `<h1>Alpha</h1><p>one</p><p>two</p><p>three</p>`,
			"https://b.example": `<h1>Beta</h1>`,
		}},
	}
	f.service = NewBriefService(cfg, f.fetcher, testLogger())
	f.service.newSearcher = func(ctx context.Context, apiKey string) (Searcher, error) {
		f.keys = append(f.keys, "search:"+apiKey)
		return f.searcher, nil
	}
	f.service.newBriefWriter = func(apiKey string) (BriefWriter, error) {
		f.keys = append(f.keys, "llm:"+apiKey)
		return f.writer, nil
	}
	return f
}

func TestRunScrapesAndBriefs(t *testing.T) {
	f := newServiceFixture()
	limit := 2

	report, err := f.service.Run(context.Background(), Request{
		Keyword:       "  trail shoes ",
		Tags:          []string{"H1", "p"},
		FragmentLimit: &limit,
		WithBrief:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, "trail shoes", f.searcher.keyword)
	assert.Equal(t, 5, f.searcher.n)
	assert.Equal(t, []string{"search:env-serp", "llm:env-llm"}, f.keys)

	assert.Equal(t, "trail shoes", report.Keyword)
	assert.Equal(t, []string{"h1", "p"}, report.Tags)
	require.Len(t, report.Sites, 2)
	assert.Equal(t, []string{"one", "two"}, report.Sites[0].Tags[1].Texts)
	assert.Equal(t, []string{"Beta"}, report.Sites[1].Tags[0].Texts)

	assert.Equal(t, "## Brief", report.Brief)
	assert.Equal(t, "stub-model", report.BriefModel)
	assert.Empty(t, report.BriefError)
	assert.Equal(t, report.Sites, f.writer.sites)
	assert.NotEmpty(t, report.ID.String())
	assert.False(t, report.CreatedAt.IsZero())
}

func TestRunUsesRequestKeysAndConfigLimit(t *testing.T) {
	f := newServiceFixture()

	report, err := f.service.Run(context.Background(), Request{
		Keyword:   "kw",
		Tags:      []string{"p"},
		Results:   50,
		SearchKey: "form-serp",
		LLMKey:    "form-llm",
		WithBrief: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"search:form-serp", "llm:form-llm"}, f.keys)
	assert.Equal(t, maxResultCount, f.searcher.n)
	assert.Equal(t, []string{"one", "two", "three"}, report.Sites[0].Tags[0].Texts)
}

func TestRunWithoutBrief(t *testing.T) {
	f := newServiceFixture()

	report, err := f.service.Run(context.Background(), Request{Keyword: "kw", Tags: []string{"h1"}})
	require.NoError(t, err)

	assert.Empty(t, report.Brief)
	assert.Empty(t, report.BriefModel)
	assert.Equal(t, []string{"search:env-serp"}, f.keys)
}

func TestRunPresenceChecks(t *testing.T) {
	tests := []struct {
		name   string
		req    Request
		mutate func(*Config)
	}{
		{name: "keyword", req: Request{Tags: []string{"h1"}}},
		{name: "tags", req: Request{Keyword: "kw", Tags: []string{" "}}},
		{name: "search key", req: Request{Keyword: "kw", Tags: []string{"h1"}}, mutate: func(c *Config) { c.SerperAPIKey = "" }},
		{name: "llm key", req: Request{Keyword: "kw", Tags: []string{"h1"}, WithBrief: true}, mutate: func(c *Config) { c.OpenAIAPIKey = "" }},
		{name: "briefs disabled", req: Request{Keyword: "kw", Tags: []string{"h1"}, WithBrief: true}, mutate: func(c *Config) { c.BriefProvider = "none" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()
			if tt.mutate != nil {
				tt.mutate(f.service.cfg)
			}

			_, err := f.service.Run(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrMissingInput)
			assert.Empty(t, f.keys)
		})
	}
}

func TestRunNoSearchResults(t *testing.T) {
	f := newServiceFixture()
	f.searcher.links = []string{}

	_, err := f.service.Run(context.Background(), Request{Keyword: "kw", Tags: []string{"h1"}})
	assert.EqualError(t, err, `no search results for "kw"`)
	assert.False(t, errors.Is(err, ErrMissingInput))
	assert.Empty(t, f.fetcher.calls)
}

func TestRunSearchError(t *testing.T) {
	f := newServiceFixture()
	f.searcher.err = errors.New("dial tcp: timeout")

	_, err := f.service.Run(context.Background(), Request{Keyword: "kw", Tags: []string{"h1"}})
	assert.ErrorContains(t, err, "dial tcp")
}

func TestRunBriefFailureKeepsScrapes(t *testing.T) {
	f := newServiceFixture()
	f.writer.brief = ""
	f.writer.err = errors.New("rate limited")

	report, err := f.service.Run(context.Background(), Request{Keyword: "kw", Tags: []string{"h1"}, WithBrief: true})
	require.NoError(t, err)

	assert.Len(t, report.Sites, 2)
	assert.Empty(t, report.Brief)
	assert.Equal(t, "rate limited", report.BriefError)
	assert.Equal(t, "stub-model", report.BriefModel)
}
