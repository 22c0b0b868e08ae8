package main

import (
	"context"
	"fmt"
	"io"

	"f1-pitwall/internal/core/cache"
	"f1-pitwall/internal/core/config"
	"f1-pitwall/internal/core/mongo"
	"f1-pitwall/internal/core/openf1"
	"f1-pitwall/internal/season"

	"github.com/spf13/cobra"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

var defaultYears = []int{2023, 2024, 2025}

type options struct {
	years   []int
	dataDir string
	out     io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{out: out}

	root := &cobra.Command{
		Use:           "seasonctl",
		Short:         "Fetch and process F1 season data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().IntSliceVar(&opts.years, "year", defaultYears, "season year (repeatable)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "cache directory (overrides DATA_DIR)")

	root.AddCommand(
		newFetchCmd(opts),
		newProcessCmd(opts),
		newSeasonsCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

func (o *options) config() config.Config {
	cfg := config.LoadConfig()
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	return cfg
}

func (o *options) validateYears() error {
	if len(o.years) == 0 {
		return fmt.Errorf("at least one --year is required")
	}
	for _, y := range o.years {
		if y < 1950 || y > 2100 {
			return fmt.Errorf("year %d out of range", y)
		}
	}
	return nil
}

// openService wires the OpenF1 client and cache store. The returned func
// releases both.
func (o *options) openService() (*season.Service, func(), error) {
	cfg := o.config()

	var mongoClient *mongodriver.Client
	if cfg.CacheBackend == cache.BackendMongo {
		var err error
		mongoClient, err = mongo.Connect(cfg)
		if err != nil {
			return nil, nil, err
		}
	}
	store, err := cache.Open(cfg, mongoClient)
	if err != nil {
		if mongoClient != nil {
			mongo.Cleanup(context.Background(), mongoClient)
		}
		return nil, nil, err
	}

	client, _ := openf1.NewFromConfig(cfg)
	closeFn := func() {
		client.Close()
		if mongoClient != nil {
			mongo.Cleanup(context.Background(), mongoClient)
		}
	}
	return season.NewService(client, store, cfg.FallbackDriverSessions), closeFn, nil
}
