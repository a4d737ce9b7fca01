package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrScanTruncated is returned when PostgREST caps a prefix scan below the
// number of matching rows (the server's max-rows setting).
var ErrScanTruncated = errors.New("prefix scan truncated by server row limit")

// kvRow is one row of the key/value table.
type kvRow struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (su *SupabaseRepo) Get(ctx context.Context, key string) (json.RawMessage, error) {
	raw, _, err := su.kvClient.From(su.kvTable).
		Select("key,value", "", false).
		Eq("key", key).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	var rows []kvRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kv rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrKeyNotFound
	}
	return rows[0].Value, nil
}

func (su *SupabaseRepo) Set(ctx context.Context, key string, value json.RawMessage) error {
	_, _, err := su.kvClient.From(su.kvTable).
		Insert(kvRow{Key: key, Value: value}, true, "key", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to upsert key %s: %w", key, err)
	}
	return nil
}

// GetByPrefix asks for an exact count alongside the rows so a response cut
// short by max-rows fails instead of silently dropping records.
func (su *SupabaseRepo) GetByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	raw, total, err := su.kvClient.From(su.kvTable).
		Select("key,value", "exact", false).
		Like("key", prefix+"*").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to scan prefix %s: %w", prefix, err)
	}

	var rows []kvRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kv rows: %w", err)
	}
	if total > int64(len(rows)) {
		return nil, fmt.Errorf("scan prefix %s: got %d of %d rows: %w", prefix, len(rows), total, ErrScanTruncated)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })

	values := make([]json.RawMessage, 0, len(rows))
	for _, r := range rows {
		values = append(values, r.Value)
	}
	return values, nil
}
