package llmrouter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"synapse/internal/logging"
)

// UsageRecord is one {provider, model, tokens, wall_time} row, matching
// spec.md's process-wide usage counter requirement.
type UsageRecord struct {
	Provider       string
	Model          string
	InputTokensEst int
	OutputTokenEst int
	WallTime       time.Duration
}

// UsageCounter is a snapshot-able, resettable process-wide accumulator.
// ClickHouse persistence (C14) is additive: Snapshot/Reset keep working
// identically whether or not CLICKHOUSE_DSN is configured.
type UsageCounter struct {
	mu      sync.Mutex
	records []UsageRecord
	sink    *clickHouseSink
}

func NewUsageCounter(clickhouseDSN string) *UsageCounter {
	uc := &UsageCounter{}
	if clickhouseDSN != "" {
		sink, err := newClickHouseSink(clickhouseDSN)
		if err != nil {
			logging.Log.WithError(err).Warn("llmrouter: clickhouse usage sink disabled")
		} else {
			uc.sink = sink
		}
	}
	return uc
}

func (u *UsageCounter) record(r UsageRecord) {
	u.mu.Lock()
	u.records = append(u.records, r)
	u.mu.Unlock()
	if u.sink != nil {
		u.sink.enqueue(r)
	}
}

// Snapshot returns a copy of every record accumulated since the last Reset.
func (u *UsageCounter) Snapshot() []UsageRecord {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]UsageRecord, len(u.records))
	copy(out, u.records)
	return out
}

// Reset clears the in-process counter. It does not affect rows already
// flushed to ClickHouse.
func (u *UsageCounter) Reset() {
	u.mu.Lock()
	u.records = nil
	u.mu.Unlock()
}

// clickHouseSink asynchronously batches usage rows into an llm_usage table.
// Grounded on manifold/internal/agentd/clickhouse_schema.go and
// metrics_clickhouse.go for the clickhouse.ParseDSN/Open/Exec shape.
type clickHouseSink struct {
	conn clickhouse.Conn
}

func newClickHouseSink(dsn string) (*clickHouseSink, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("llmrouter: parse clickhouse dsn: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("llmrouter: open clickhouse connection: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	const ddl = `CREATE TABLE IF NOT EXISTS llm_usage (
		ts DateTime DEFAULT now(),
		provider String,
		model String,
		input_tokens_est UInt32,
		output_tokens_est UInt32,
		wall_time_ms UInt32
	) ENGINE = MergeTree ORDER BY ts`
	if err := conn.Exec(ctx, ddl); err != nil {
		conn.Close()
		return nil, fmt.Errorf("llmrouter: ensure llm_usage table: %w", err)
	}
	return &clickHouseSink{conn: conn}, nil
}

// enqueue fires an async insert; failures are logged, never surfaced to the
// caller, since usage accounting must never block or fail a route call.
func (s *clickHouseSink) enqueue(r UsageRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.conn.AsyncInsert(ctx, `INSERT INTO llm_usage
			(provider, model, input_tokens_est, output_tokens_est, wall_time_ms)
			VALUES (?, ?, ?, ?, ?)`, false,
			r.Provider, r.Model, r.InputTokensEst, r.OutputTokenEst, uint32(r.WallTime.Milliseconds()))
		if err != nil {
			logging.Log.WithError(err).Warn("llmrouter: clickhouse usage insert failed")
		}
	}()
}
