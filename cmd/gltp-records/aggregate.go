package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yourusername/gltp-records/internal/catalog"
	"github.com/yourusername/gltp-records/internal/datasource"
	"github.com/yourusername/gltp-records/internal/leaderboard"
	"github.com/yourusername/gltp-records/internal/service"
)

// Output views of the aggregate command
const (
	viewAll          = "all"
	viewLeaderboards = "leaderboards"
	viewBest         = "best"
	viewRecords      = "records"
	viewDiagnostics  = "diagnostics"
)

type localFlags struct {
	input   string
	catalog string
	output  string
}

func (f *localFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Records document (JSON object keyed by replay uuid, or array)")
	cmd.Flags().StringVar(&f.catalog, "catalog", "", "Map spreadsheet CSV export; unknown maps are skipped when set")
	cmd.Flags().StringVarP(&f.output, "output", "o", "-", "Output file, - for stdout")
	_ = cmd.MarkFlagRequired("input")
}

func newAggregateCmd() *cobra.Command {
	var flags localFlags
	var view string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate a records document into leaderboards",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := aggregateLocal(cmd.Context(), flags, cliLogger())
			if err != nil {
				return err
			}

			var body interface{}
			switch view {
			case viewAll:
				body = res
			case viewLeaderboards:
				body = res.Leaderboards()
			case viewBest:
				body = res.RecentBest()
			case viewRecords:
				body = res.RecordsByMap
			case viewDiagnostics:
				body = res.Diagnostics
			default:
				return fmt.Errorf("unknown view %q", view)
			}
			return writeOutput(cmd.OutOrStdout(), flags.output, body)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&view, "view", viewAll, "What to print: all, leaderboards, best, records or diagnostics")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var flags localFlags
	var query leaderboard.StatsQuery

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Query records by capping player and map",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("topk") && query.TopK < 1 {
				return fmt.Errorf("topk must be >= 1")
			}

			res, cat, err := aggregateLocal(cmd.Context(), flags, cliLogger())
			if err != nil {
				return err
			}
			if resolved, known := cat.Resolve(query.MapID); known {
				query.MapID = resolved
			}
			return writeOutput(cmd.OutOrStdout(), flags.output, res.Stats(query))
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&query.CappingPlayerUserID, "capping-player-user-id", "", "Only records capped by this user id")
	cmd.Flags().StringVar(&query.MapID, "map-id", "", "Only records on this map")
	cmd.Flags().IntVar(&query.TopK, "topk", 0, "Keep the K fastest records per map")
	return cmd
}

// aggregateLocal runs one refresh over local files through the leaderboard service
// along with the loaded catalog, which is nil without --catalog
func aggregateLocal(ctx context.Context, flags localFlags, log *logrus.Logger) (*leaderboard.Result, *catalog.Catalog, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := service.Options{}
	if flags.catalog != "" {
		opts.Catalog = datasource.NewFileCatalogSource(flags.catalog)
	}

	svc := service.NewLeaderboardService(datasource.NewFileRecordSource(flags.input), log, opts)
	if err := svc.RefreshCatalog(ctx); err != nil {
		return nil, nil, err
	}
	res, err := svc.Refresh(ctx)
	if err != nil {
		return nil, nil, err
	}
	return res, svc.Catalog(), nil
}

func writeOutput(stdout io.Writer, path string, body interface{}) error {
	out := stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(body)
}
