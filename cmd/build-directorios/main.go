package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vistoenmaps/vistoenmaps-api/internal/catalog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/logger"
	"github.com/vistoenmaps/vistoenmaps-api/internal/scraper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type buildOptions struct {
	input       string
	output      string
	base        string
	enrich      bool
	rps         int
	concurrency int
	groups      string
	debug       bool
}

func newRootCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build-directorios",
		Short: "Build the directory catalog from exported citation sources",
		Long: "Reads a JSON array of citation sources, groups them by domain, keeps the\n" +
			"directories, applies the curated entries of the base catalog and writes a\n" +
			"complete catalog YAML document.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Citation sources JSON file (required)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "catalog.yaml", "Catalog YAML to write")
	cmd.Flags().StringVar(&opts.base, "base", "", "Catalog providing reference tables and curated entries (defaults to the embedded catalog)")
	cmd.Flags().BoolVar(&opts.enrich, "enrich", false, "Fetch homepages to fill missing names and descriptions")
	cmd.Flags().IntVar(&opts.rps, "rps", 2, "Homepage requests per second when enriching")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "Concurrent homepage fetches when enriching")
	cmd.Flags().StringVar(&opts.groups, "groups", "", "Optional JSON file receiving every grouped domain and its classification")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Verbose logging")

	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts buildOptions) error {
	level := "info"
	if opts.debug {
		level = "debug"
	}
	log := logger.New(logger.Options{Level: level, Format: "console", Output: os.Stderr})

	base, err := openBase(opts.base)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("failed to open sources: %w", err)
	}
	sources, err := catalog.ReadSources(f)
	f.Close()
	if err != nil {
		return err
	}
	log.Info("Citation sources loaded", "sources", len(sources), "file", opts.input)

	builderOpts := []catalog.BuilderOption{
		catalog.WithOverrides(base.Directories()),
		catalog.WithBuilderLogger(log),
	}

	var client *scraper.Client
	if opts.enrich {
		client = scraper.NewClient(opts.rps)
		defer client.Close()
		builderOpts = append(builderOpts, catalog.WithMetadataFetcher(client, opts.concurrency))
	}

	result, err := catalog.NewBuilder(builderOpts...).Build(ctx, sources)
	if err != nil {
		return err
	}

	data, err := catalog.MarshalDocument(base, result.Directories)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	if opts.groups != "" {
		if err := writeGroups(opts.groups, result.Groups); err != nil {
			return err
		}
	}

	printStats(out, opts.output, result)
	if client != nil {
		printHealth(out, client.Health())
		return checkHealth(client)
	}
	return nil
}

type healthReporter interface {
	Healthy() bool
	FailureRate() float64
}

// checkHealth fails the run when enrichment fetches were unhealthy. The
// catalog has already been written so it can still be inspected.
func checkHealth(h healthReporter) error {
	if h.Healthy() {
		return nil
	}
	return fmt.Errorf("homepage enrichment unhealthy: %.0f%% of fetches failed", h.FailureRate()*100)
}

func openBase(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

func writeGroups(path string, groups []catalog.SourceGroup) error {
	data, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode groups: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write groups: %w", err)
	}
	return nil
}

func printStats(w io.Writer, output string, r *catalog.BuildResult) {
	fmt.Fprintf(w, "Catalog written to %s\n", output)
	fmt.Fprintf(w, "  Domains grouped:   %d\n", len(r.Groups))
	fmt.Fprintf(w, "  Directories:       %d\n", len(r.Directories))
	fmt.Fprintf(w, "  Businesses skipped: %d\n", r.Businesses)
	if r.Enriched > 0 || r.EnrichFailed > 0 {
		fmt.Fprintf(w, "  Enriched:          %d (%d failed)\n", r.Enriched, r.EnrichFailed)
	}

	fmt.Fprintln(w, "  By tier:")
	printCounts(w, r.ByTier)
	fmt.Fprintln(w, "  By category:")
	printCounts(w, r.ByCategory)
}

func printCounts(w io.Writer, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "    %-10s %d\n", k, counts[k])
	}
}

func printHealth(w io.Writer, h scraper.HealthStatus) {
	fmt.Fprintf(w, "Homepage fetches: %d (%.0f%% ok)\n", h.TotalRequests, h.SuccessRate*100)
	for i, issue := range h.HealthIssues {
		fmt.Fprintf(w, "  ! %s\n", issue)
		if i < len(h.RecommendedActions) {
			fmt.Fprintf(w, "    %s\n", h.RecommendedActions[i])
		}
	}
}
