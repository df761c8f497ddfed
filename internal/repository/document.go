package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/voxic/multi-odl-demo/internal/domain"
	"github.com/voxic/multi-odl-demo/internal/envelope"
)

// DocumentRepository reads raw change-event envelopes from the per-collection
// landing tables. Documents are returned as stored; normalization and
// latest-version resolution are the caller's job.
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// keyPaths enumerates where a key field can live depending on envelope shape.
func keyPaths(field string) string {
	return fmt.Sprintf(
		`doc->>'%[1]s' = $1 OR doc->'after'->>'%[1]s' = $1
		OR doc->'fullDocument'->>'%[1]s' = $1
		OR doc->'fullDocument'->'after'->>'%[1]s' = $1`, field)
}

// FindByKey returns every stored envelope in col whose entity carries the
// given id under field, newest ingestion first. Duplicate and superseded
// versions are included; resolve them with envelope.ResolveLatest.
func (r *DocumentRepository) FindByKey(ctx context.Context, col domain.Collection, field string, id int64) ([]envelope.Record, error) {
	query := fmt.Sprintf(
		`SELECT seq, doc, received_at FROM %s WHERE %s ORDER BY received_at DESC, seq DESC`,
		col, keyPaths(field),
	)

	rows, err := r.db.QueryContext(ctx, query, fmt.Sprintf("%d", id))
	if err != nil {
		return nil, fmt.Errorf("FindByKey: %s: %w", col, err)
	}
	defer rows.Close()

	var recs []envelope.Record
	for rows.Next() {
		var (
			rec envelope.Record
			raw []byte
		)
		if err := rows.Scan(&rec.Seq, &raw, &rec.ReceivedAt); err != nil {
			return nil, fmt.Errorf("FindByKey: %s: scan: %w", col, err)
		}
		if err := json.Unmarshal(raw, &rec.Fields); err != nil {
			return nil, fmt.Errorf("FindByKey: %s: unmarshal doc %d: %w", col, rec.Seq, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindByKey: %s: rows: %w", col, err)
	}
	return recs, nil
}

// DistinctCustomerIDs enumerates every customer id ever observed in the
// customer collection, across all envelope shapes.
func (r *DocumentRepository) DistinctCustomerIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT (COALESCE(
			doc->>'customer_id',
			doc->'after'->>'customer_id',
			doc->'fullDocument'->>'customer_id',
			doc->'fullDocument'->'after'->>'customer_id'))::bigint AS customer_id
		FROM customers_raw
		WHERE COALESCE(
			doc->>'customer_id',
			doc->'after'->>'customer_id',
			doc->'fullDocument'->>'customer_id',
			doc->'fullDocument'->'after'->>'customer_id') ~ '^[0-9]+$'
		ORDER BY customer_id`)
	if err != nil {
		return nil, fmt.Errorf("DistinctCustomerIDs: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("DistinctCustomerIDs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("DistinctCustomerIDs: rows: %w", err)
	}
	return ids, nil
}

// CountCustomers reports how many distinct customer ids the source collection
// has seen; diagnostic only, surfaced by /stats.
func (r *DocumentRepository) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT COALESCE(
			doc->>'customer_id',
			doc->'after'->>'customer_id',
			doc->'fullDocument'->>'customer_id',
			doc->'fullDocument'->'after'->>'customer_id'))
		FROM customers_raw`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountCustomers: %w", err)
	}
	return n, nil
}
