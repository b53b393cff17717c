package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vistoenmaps/vistoenmaps-api/internal/catalog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/scoring"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var category, city, catalogPath string
	var summary, asJSON bool

	cmd := &cobra.Command{
		Use:          "recomendar",
		Short:        "Score the directory catalog for a business category and city",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := openCatalog(catalogPath)
			if err != nil {
				return err
			}

			engine := scoring.NewEngine(cat)
			recs := engine.Recommend(catalog.NormalizeSlug(category), catalog.NormalizeSlug(city))
			out := cmd.OutOrStdout()

			if summary {
				s := scoring.Summarize(recs)
				if asJSON {
					return writeJSON(out, s)
				}
				printSummary(out, s)
				return nil
			}

			if asJSON {
				return writeJSON(out, recs)
			}
			printRecommendations(out, recs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "categoria", "c", "", "Business category slug (required)")
	cmd.Flags().StringVarP(&city, "ciudad", "u", "", "City slug (optional)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog YAML file (defaults to the embedded catalog)")
	cmd.Flags().BoolVar(&summary, "resumen", false, "Print the priority summary instead of the full list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write JSON instead of a table")

	_ = cmd.MarkFlagRequired("categoria")
	return cmd
}

func openCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRecommendations(w io.Writer, recs []scoring.Recommendation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tPRIORIDAD\tDIRECTORIO\tTIPO\tRAZONES")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.Score, r.Priority, r.Directory.Name, r.Directory.Tier, strings.Join(r.Reasons, "; "))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%d directorios recomendados\n", len(recs))
}

func printSummary(w io.Writer, s scoring.Summary) {
	fmt.Fprintf(w, "Total: %d\n", s.Total)
	groups := []struct {
		label string
		recs  []scoring.Recommendation
	}{
		{"Críticas", s.Critical},
		{"Altas", s.High},
		{"Medias", s.Medium},
		{"Bajas", s.Low},
		{"Gratuitas", s.Free},
		{"Con reseñas", s.WithReviews},
	}
	for _, g := range groups {
		names := make([]string, 0, len(g.recs))
		for _, r := range g.recs {
			names = append(names, r.Directory.Name)
		}
		fmt.Fprintf(w, "%-12s %3d  %s\n", g.label+":", len(g.recs), strings.Join(names, ", "))
	}
}
