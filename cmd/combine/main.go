// Command combine builds data/data.json from the cached Wikidata query
// results, downloading any division shape that is not yet on disk.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AlanRandon/subdivisions-game/internal/dataset"
)

type options struct {
	cacheDir string
	shapeDir string
	out      string
	osmURL   string
}

func newRootCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Combine cached query results into the game dataset",
		Long: `Reads regions.json and divisions.json from the cache directory, fetches
missing division shapes into the shape directory and writes the dataset.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCombine(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "data/cache", "Directory holding regions.json and divisions.json")
	cmd.Flags().StringVar(&opts.shapeDir, "shape-dir", "data/geoshape", "Directory for downloaded division shapes")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "data/data.json", "Dataset file to write")
	cmd.Flags().StringVar(&opts.osmURL, "osm-url", dataset.DefaultOSMPolygonURL, "OSM polygon service")
	return cmd
}

func runCombine(ctx context.Context, opts options) error {
	regions, divisions, err := dataset.ReadSources(opts.cacheDir)
	if err != nil {
		return err
	}
	log.Info().Int("regions", len(regions)).Int("divisions", len(divisions)).Msg("read query cache")

	c := dataset.NewCombiner(opts.shapeDir)
	c.OSMPolygonURL = opts.osmURL
	combined, err := c.Combine(ctx, regions, divisions)
	if err != nil {
		return err
	}
	if err := dataset.WriteFile(opts.out, combined); err != nil {
		return err
	}
	log.Info().Str("path", opts.out).Int("regions", len(combined)).Msg("dataset written")
	return nil
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("combine failed")
		stop()
		os.Exit(1)
	}
}
