// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "seo-brief",
	Short: "Scrape top-ranking pages for a keyword and draft a content brief",
	Long: `seo-brief looks up the top-ranking pages for a keyword through a SERP API,
scrapes the text of selected HTML tags from each page and can ask a
chat-completion model to turn that text into a content brief.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}

		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "2006/01/02 15:04:05",
			Level:           cfg.LogLevel,
		})
		return nil
	},
}

// newService builds the service the commands run against
var newService = NewBriefService

var (
	runTags    []string
	runResults int
	runLimit   int
	runNoBrief bool
	runJSON    bool
)

var runCmd = &cobra.Command{
	Use:   "run <keyword>",
	Short: "Scrape the top results for a keyword and print the report",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fetcher, closeFetcher, err := newFetcher(cfg, logger)
		if err != nil {
			return err
		}
		defer closeFetcher()

		req := Request{
			Keyword:   strings.Join(args, " "),
			Tags:      runTags,
			Results:   runResults,
			WithBrief: !runNoBrief && cfg.BriefsEnabled(),
		}
		if cmd.Flags().Changed("limit") {
			req.FragmentLimit = &runLimit
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stopSpinner := startSpinner(os.Stderr)
		report, err := newService(cfg, fetcher, logger).Run(ctx, req)
		stopSpinner()
		if err != nil {
			return err
		}
		return WriteReport(cmd.OutOrStdout(), report, runJSON)
	},
}

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		fetcher, closeFetcher, err := newFetcher(cfg, logger)
		if err != nil {
			return err
		}
		defer closeFetcher()

		addr := cfg.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}

		if cfg.LogLevel > log.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}
		router, err := NewServer(cfg, newService(cfg, fetcher, logger), logger).Router()
		if err != nil {
			return fmt.Errorf("building router: %w", err)
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", addr, "search", cfg.SearchProvider, "brief", cfg.BriefProvider)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

// newFetcher returns the page fetcher selected by RENDER_JS and its cleanup
func newFetcher(cfg *Config, logger *log.Logger) (Fetcher, func(), error) {
	if !cfg.RenderJS {
		return NewHTTPFetcher(cfg.FetchTimeout, logger), func() {}, nil
	}

	renderer, err := NewPageRenderer(cfg.FetchTimeout, logger)
	if err != nil {
		return nil, nil, err
	}
	return renderer, func() {
		if err := renderer.Close(); err != nil {
			logger.Warn("closing page renderer", "err", err)
		}
	}, nil
}

func init() {
	runCmd.Flags().StringSliceVarP(&runTags, "tags", "t", DefaultTags, "HTML tags to scrape")
	runCmd.Flags().IntVarP(&runResults, "results", "n", 0, "number of top results to scrape (default RESULT_COUNT)")
	runCmd.Flags().IntVarP(&runLimit, "limit", "l", defaultFragmentLimit, "fragments kept per tag, 0 keeps all (default FRAGMENT_LIMIT)")
	runCmd.Flags().BoolVar(&runNoBrief, "no-brief", false, "skip the content brief")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the report as JSON")

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address (default ADDR)")

	rootCmd.AddCommand(runCmd, serveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
