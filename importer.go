package kevals

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/ukwa/kevals.go/pkg/constants"
	"github.com/ukwa/kevals.go/pkg/jsonl"
	"github.com/ukwa/kevals.go/pkg/models"
)

// ImportStats summarises what an import sent.
type ImportStats struct {
	Records int
	Batches int
}

// ImportItems sends records in batches of the configured size.
func (c *Client) ImportItems(ctx context.Context, records []models.Record) (ImportStats, error) {
	return c.ImportFrom(ctx, models.NewSliceIterator(records))
}

// ImportJSONL reads one JSON record per line from r and imports them.
// Records are decoded as they are needed, so batches preceding a malformed
// line have already been sent when its ParseError is returned.
func (c *Client) ImportJSONL(ctx context.Context, r io.Reader) (ImportStats, error) {
	return c.ImportFrom(ctx, jsonl.NewReader(r))
}

// ImportFrom drains it, sending a batch each time batch size records have
// accumulated and a final, possibly smaller, batch at the end.
func (c *Client) ImportFrom(ctx context.Context, it models.RecordIterator) (ImportStats, error) {
	var stats ImportStats
	batch := make([]models.Record, 0, c.batchSize)

	flush := func() error {
		if err := c.SendBatch(ctx, batch); err != nil {
			return err
		}
		stats.Records += len(batch)
		stats.Batches++
		batch = batch[:0]
		return nil
	}

	for it.Next() {
		batch = append(batch, it.Record())
		if len(batch) >= c.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := it.Err(); err != nil {
		return stats, err
	}

	if len(batch) > 0 {
		if err := flush(); err != nil {
			return stats, err
		}
	}

	c.logger.Debug().Int("records", stats.Records).Int("batches", stats.Batches).Msg("import finished")
	return stats, nil
}

// SendBatch translates batch and posts it as a single update request,
// regardless of the configured batch size.
func (c *Client) SendBatch(ctx context.Context, batch []models.Record) error {
	docs, err := TranslateBatch(batch, c.asUpdates)
	if err != nil {
		return err
	}
	return c.SendUpdate(ctx, docs)
}

// SendUpdate posts already translated documents to the update handler with
// a soft commit, so they become visible to queries without a hard commit.
func (c *Client) SendUpdate(ctx context.Context, docs []models.UpdateDocument) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for batch slot: %w", err)
		}
	}

	c.logger.Debug().Int("size", len(docs)).Msg("sending batch")
	_, err := c.conn.PostJSON(ctx, constants.UpdatePath, url.Values{"softCommit": {"true"}}, docs)
	return err
}
