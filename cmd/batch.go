package main

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markmdev/networking-copilot/internal/model"
	"github.com/markmdev/networking-copilot/internal/pipeline"
)

var (
	batchInput       string
	batchLimit       int
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:         "batch",
	Short:       "Look up every name in a CSV file",
	Annotations: withMode("lookup"),
	Long: `Reads a CSV with a header row containing first_name and last_name, and
optionally additional_context, then runs a lookup for each row.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		f, err := os.Open(batchInput)
		if err != nil {
			return eris.Wrapf(err, "open %s", batchInput)
		}
		defer f.Close() //nolint:errcheck

		queries, err := parseNames(f)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, "lookup")
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := processBatch(ctx, queries, batchLimit, batchConcurrency, env.Pipeline.Lookup)
		if err != nil {
			return err
		}
		return printJSON(results)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "CSV file of names (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of rows to process")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 2, "lookups to run at once")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// parseNames reads search queries from CSV. Rows missing a first or last
// name are skipped.
func parseNames(r io.Reader) ([]model.SearchQuery, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "batch: read header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"first_name", "last_name"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("batch: missing %s column", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var queries []model.SearchQuery
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "batch: read row")
		}
		q := model.SearchQuery{
			FirstName:         field(row, "first_name"),
			LastName:          field(row, "last_name"),
			AdditionalContext: field(row, "additional_context"),
		}
		if q.FirstName == "" || q.LastName == "" {
			continue
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// lookupFunc is the callback signature for one batch lookup.
type lookupFunc func(ctx context.Context, q model.SearchQuery) (*pipeline.Outcome, error)

// batchResult is one row of batch output.
type batchResult struct {
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	RecordID  string        `json:"record_id,omitempty"`
	URL       string        `json:"url,omitempty"`
	Cached    bool          `json:"cached,omitempty"`
	Kind      pipeline.Kind `json:"error_kind,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// processBatch applies limit, then runs lookups concurrently. Individual
// failures are reported per row and never abort the batch.
func processBatch(ctx context.Context, queries []model.SearchQuery, limit, concurrency int, lookup lookupFunc) ([]batchResult, error) {
	if len(queries) == 0 {
		zap.L().Info("no names to process")
		return nil, nil
	}
	if limit > 0 && len(queries) > limit {
		queries = queries[:limit]
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("names", len(queries)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var (
		mu        sync.Mutex
		succeeded atomic.Int64
		failed    atomic.Int64
	)
	results := make([]batchResult, len(queries))

	for i, q := range queries {
		g.Go(func() error {
			log := zap.L().With(zap.String("first_name", q.FirstName), zap.String("last_name", q.LastName))
			res := batchResult{FirstName: q.FirstName, LastName: q.LastName}

			out, err := lookup(gctx, q)
			if err != nil {
				failed.Add(1)
				res.Kind = pipeline.KindOf(err)
				res.Error = err.Error()
				log.Error("lookup failed", zap.Error(err))
			} else {
				succeeded.Add(1)
				res.RecordID = out.RecordID
				res.Cached = out.Cached
				if out.Result != nil {
					res.URL = out.Result.Person.URL
				}
				log.Info("lookup complete", zap.String("record_id", out.RecordID))
			}

			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results, nil
}
