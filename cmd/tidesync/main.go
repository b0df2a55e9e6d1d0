package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/spencer-p/tideserver/pkg/coops"
	"github.com/spencer-p/tideserver/pkg/data"
	"github.com/spencer-p/tideserver/pkg/logging"
)

// app holds what every subcommand needs. Fields left nil are built from the
// environment before the command runs.
type app struct {
	fetcher coops.Fetcher
	store   data.Store
	log     *logrus.Entry
	now     func() time.Time

	dryRun        bool
	endpointsFile string
	timeout       time.Duration
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tidesync",
		Short: "Refresh stored tide server documents from NOAA",
		Long: `tidesync fetches data from NOAA CO-OPS and writes the resulting documents
to the tide server's store, so that they can be served without asking NOAA.
The store is selected with the same environment variables as the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&a.dryRun, "dry-run", false, "print documents instead of storing them")
	flags.StringVar(&a.endpointsFile, "endpoints", "", "YAML file overriding NOAA endpoints")
	flags.DurationVar(&a.timeout, "timeout", 30*time.Second, "timeout of each NOAA request")

	rootCmd.AddCommand(newStationsCmd(a))
	rootCmd.AddCommand(newExtremaCmd(a))
	return rootCmd
}

func (a *app) setup(ctx context.Context) error {
	if a.now == nil {
		a.now = time.Now
	}

	if a.log == nil {
		var logCfg logging.Config
		if err := envconfig.Process("", &logCfg); err != nil {
			return err
		}
		logger, err := logging.New(logCfg)
		if err != nil {
			return err
		}
		a.log = logging.Component(logger, "tidesync")
	}

	if a.store == nil && !a.dryRun {
		var storeCfg data.Config
		if err := envconfig.Process("", &storeCfg); err != nil {
			return err
		}
		store, err := data.Open(ctx, storeCfg)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		a.store = store
	}

	if a.fetcher == nil {
		endpoints := coops.DefaultEndpoints()
		if a.endpointsFile != "" {
			var err error
			endpoints, err = coops.LoadEndpointsFile(a.endpointsFile)
			if err != nil {
				return err
			}
		}
		client := coops.NewClient(
			coops.WithHTTPClient(&http.Client{Timeout: a.timeout}),
			coops.WithEndpoints(endpoints),
			coops.WithLogger(a.log),
		)
		a.fetcher = coops.NewRetrying(client, coops.DefaultRetryPolicy(), a.log)
	}
	return nil
}

// write stores doc unless it is unchanged, or prints it on a dry run.
func (a *app) write(cmd *cobra.Command, doc *data.Document) error {
	if a.dryRun {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n", doc.Body)
		return err
	}

	changed, err := data.PutIfChanged(cmd.Context(), a.store, doc)
	if err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{
		"path":    doc.Path,
		"changed": changed,
		"etag":    doc.ETag,
	}).Info("synced document")
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Error loading .env file")
	}

	if err := newRootCmd(&app{}).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
