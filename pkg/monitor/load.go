package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/airwatchio/airwatch/pkg/table"
)

const (
	metaSuffix = "_meta.csv"
	dataSuffix = "_data.csv"

	defaultRetries = 3
	retryBackoff   = 2 * time.Second
)

// LoadOptions configures a custom load. BaseName and BaseURL are combined
// with fixed suffixes to form the two file URLs: <BaseURL>/<BaseName>_meta.csv
// and <BaseURL>/<BaseName>_data.csv.
type LoadOptions struct {
	BaseName string
	BaseURL  string

	// MetaColumns restricts the metadata to an allow-list (for example
	// CoreMetadataColumns). Nil retains every input column.
	MetaColumns []string

	// Retries is the number of attempts per file. Zero means the default.
	Retries int

	Client *http.Client
	Logger *zap.SugaredLogger
}

// LatestLoadOptions describes the small frequently-refreshed window for the
// named feed, with metadata restricted to the core column set.
func LatestLoadOptions(baseURL, name string) LoadOptions {
	return LoadOptions{
		BaseName:    name + "_latest",
		BaseURL:     baseURL,
		MetaColumns: CoreMetadataColumns,
	}
}

// DailyLoadOptions describes the larger rolling window refreshed once per
// day, with metadata restricted to the core column set.
func DailyLoadOptions(baseURL, name string) LoadOptions {
	return LoadOptions{
		BaseName:    name + "_daily",
		BaseURL:     baseURL,
		MetaColumns: CoreMetadataColumns,
	}
}

// AnnualLoadOptions describes one calendar year's archive, which carries
// the annual metadata column set.
func AnnualLoadOptions(baseURL, name string, year int) LoadOptions {
	return LoadOptions{
		BaseName:    fmt.Sprintf("%s_%d", name, year),
		BaseURL:     baseURL,
		MetaColumns: AnnualMetadataColumns,
	}
}

// LoadLatest populates the Monitor from the latest window for the named feed.
func (m *Monitor) LoadLatest(ctx context.Context, baseURL, name string) error {
	return m.LoadCustom(ctx, LatestLoadOptions(baseURL, name))
}

// LoadDaily populates the Monitor from the daily rolling window for the
// named feed.
func (m *Monitor) LoadDaily(ctx context.Context, baseURL, name string) error {
	return m.LoadCustom(ctx, DailyLoadOptions(baseURL, name))
}

// LoadAnnual populates the Monitor from one calendar year's archive.
func (m *Monitor) LoadAnnual(ctx context.Context, baseURL, name string, year int) error {
	return m.LoadCustom(ctx, AnnualLoadOptions(baseURL, name, year))
}

// LoadCustom fetches the metadata and time-series files concurrently,
// parses and validates both, and replaces the receiver's tables. The two
// fetches are retried independently; if either ultimately fails, the load
// fails and the receiver is left unchanged — partial data is never applied.
// This is the one mutating operation on Monitor, by design, so callers can
// reload in place.
func (m *Monitor) LoadCustom(ctx context.Context, opts LoadOptions) error {
	if opts.BaseName == "" || opts.BaseURL == "" {
		return fmt.Errorf("monitor: load requires a base name and base URL")
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	retries := opts.Retries
	if retries <= 0 {
		retries = defaultRetries
	}

	opID := uuid.NewString()
	base := strings.TrimRight(opts.BaseURL, "/") + "/" + opts.BaseName
	logger.Debugw("loading monitor dataset", "op", opID, "base", base)

	var rawMeta, rawData *table.Table
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := fetchCSV(gctx, client, logger, opID, base+metaSuffix, retries)
		if err != nil {
			return fmt.Errorf("monitor: fetching metadata: %w", err)
		}
		rawMeta = t
		return nil
	})
	g.Go(func() error {
		t, err := fetchCSV(gctx, client, logger, opID, base+dataSuffix, retries)
		if err != nil {
			return fmt.Errorf("monitor: fetching time-series data: %w", err)
		}
		rawData = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	meta, err := ParseMeta(rawMeta, opts.MetaColumns)
	if err != nil {
		return err
	}
	data, err := ParseData(rawData)
	if err != nil {
		return err
	}
	loaded, err := New(meta, data)
	if err != nil {
		return err
	}

	m.Meta = loaded.Meta
	m.Data = loaded.Data
	logger.Infow("loaded monitor dataset",
		"op", opID, "base", base,
		"deployments", m.Count(), "rows", m.RowCount())
	return nil
}

// fetchCSV downloads one CSV file into an all-string table, retrying on
// failure with a fixed backoff.
func fetchCSV(ctx context.Context, client *http.Client, logger *zap.SugaredLogger, opID, url string, retries int) (*table.Table, error) {
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
		t, err := fetchCSVOnce(ctx, client, url)
		if err == nil {
			return t, nil
		}
		lastErr = err
		logger.Warnw("fetch failed", "op", opID, "url", url, "attempt", attempt, "error", err)
	}
	return nil, fmt.Errorf("%s after %d attempts: %w", url, retries, lastErr)
}

func fetchCSVOnce(ctx context.Context, client *http.Client, url string) (*table.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return table.FromCSV(resp.Body)
}
