package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
)

// Config tunes a scroll extraction.
type Config struct {
	Index           string
	BatchSize       int
	ScrollKeepAlive time.Duration
}

// Progress is a snapshot of a running extraction, delivered to the
// progress callback after every batch.
type Progress struct {
	Batches   int
	BatchDocs int
	TotalDocs int64
	Skipped   int64 // documents without an account_id
	Done      bool
}

// Extractor pulls every document from an index via the scroll API and
// hands the raw _source to a PartitionWriter. Documents without an
// account_id are skipped; nothing is transformed.
type Extractor struct {
	client     *opensearch.Client
	writer     *PartitionWriter
	cfg        Config
	onProgress func(Progress)
}

// New creates an extractor. onProgress may be nil.
func New(client *opensearch.Client, writer *PartitionWriter, cfg Config, onProgress func(Progress)) *Extractor {
	if cfg.Index == "" {
		cfg.Index = "tickets"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.ScrollKeepAlive <= 0 {
		cfg.ScrollKeepAlive = 5 * time.Minute
	}
	return &Extractor{client: client, writer: writer, cfg: cfg, onProgress: onProgress}
}

type searchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	Source json.RawMessage `json:"_source"`
}

// Run performs the full extraction and returns the total number of
// documents written. The scroll context is cleared on exit.
func (e *Extractor) Run(ctx context.Context) (int64, error) {
	body := fmt.Sprintf(`{"size":%d,"query":{"match_all":{}}}`, e.cfg.BatchSize)

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.cfg.Index),
		e.client.Search.WithBody(strings.NewReader(body)),
		e.client.Search.WithScroll(e.cfg.ScrollKeepAlive),
	)
	if err != nil {
		return 0, fmt.Errorf("initial search on %s: %w", e.cfg.Index, err)
	}

	sr, err := decodeSearch(res.Body, res.IsError(), res.StatusCode)
	if err != nil {
		return 0, fmt.Errorf("initial search on %s: %w", e.cfg.Index, err)
	}

	scrollID := sr.ScrollID
	defer func() { e.clearScroll(scrollID) }()

	var p Progress
	for len(sr.Hits.Hits) > 0 {
		if err := ctx.Err(); err != nil {
			return p.TotalDocs, err
		}

		written, skipped, err := e.writeBatch(sr.Hits.Hits)
		if err != nil {
			return p.TotalDocs, err
		}

		p.Batches++
		p.BatchDocs = written
		p.TotalDocs += int64(written)
		p.Skipped += int64(skipped)
		slog.Debug("batch written", "batch", p.Batches, "docs", written, "skipped", skipped)
		e.report(p)

		res, err = e.client.Scroll(
			e.client.Scroll.WithContext(ctx),
			e.client.Scroll.WithScrollID(scrollID),
			e.client.Scroll.WithScroll(e.cfg.ScrollKeepAlive),
		)
		if err != nil {
			return p.TotalDocs, fmt.Errorf("scroll: %w", err)
		}

		sr, err = decodeSearch(res.Body, res.IsError(), res.StatusCode)
		if err != nil {
			return p.TotalDocs, fmt.Errorf("scroll: %w", err)
		}
		if sr.ScrollID != "" {
			scrollID = sr.ScrollID
		}
	}

	p.Done = true
	p.BatchDocs = 0
	e.report(p)
	return p.TotalDocs, nil
}

func (e *Extractor) writeBatch(hits []searchHit) (written, skipped int, err error) {
	for _, hit := range hits {
		id := accountID(hit.Source)
		if id == "" {
			skipped++
			continue
		}
		if err := e.writer.Append(id, hit.Source); err != nil {
			return written, skipped, err
		}
		written++
	}
	return written, skipped, nil
}

func (e *Extractor) report(p Progress) {
	if e.onProgress != nil {
		e.onProgress(p)
	}
}

func (e *Extractor) clearScroll(scrollID string) {
	if scrollID == "" {
		return
	}
	res, err := e.client.ClearScroll(
		e.client.ClearScroll.WithScrollID(scrollID),
	)
	if err != nil {
		slog.Debug("clear scroll failed", "error", err)
		return
	}
	_ = res.Body.Close()
}

func decodeSearch(body io.ReadCloser, isError bool, status int) (*searchResponse, error) {
	defer func() { _ = body.Close() }()

	if isError {
		data, _ := io.ReadAll(body)
		return nil, fmt.Errorf("opensearch returned %d: %s", status, strings.TrimSpace(string(data)))
	}

	var sr searchResponse
	if err := json.NewDecoder(body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &sr, nil
}

// accountID pulls the partition key out of a raw document. String and
// numeric values are both accepted; missing or null yields "".
func accountID(source json.RawMessage) string {
	var probe struct {
		AccountID json.RawMessage `json:"account_id"`
	}
	if err := json.Unmarshal(source, &probe); err != nil {
		return ""
	}
	raw := probe.AccountID
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	return string(raw)
}
