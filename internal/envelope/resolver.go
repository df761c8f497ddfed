package envelope

import (
	"slices"
	"sort"
	"time"

	"github.com/voxic/multi-odl-demo/internal/decode"
)

// Record is a normalized entity document together with the ingestion metadata
// the resolver orders versions by. ReceivedAt and Seq describe when the store
// saw the envelope; they are never business data.
type Record struct {
	Fields     Document
	ReceivedAt time.Time
	Seq        int64
}

// Normalize extracts the canonical entity from every record's document,
// dropping records whose envelope carries no payload.
func Normalize(recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		fields, ok := Extract(r.Fields)
		if !ok || fields == nil {
			continue
		}
		out = append(out, Record{Fields: fields, ReceivedAt: r.ReceivedAt, Seq: r.Seq})
	}
	return out
}

// ResolveLatest returns one record per distinct value of the natural key:
// the most recently ingested version wins, ties broken by insertion order
// (higher Seq first). Non-latest versions are discarded whole, never merged
// field-by-field; upstream envelopes are full row snapshots.
// Records without the key are dropped.
func ResolveLatest(recs []Record, key string) []Record {
	sorted := slices.Clone(recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].ReceivedAt.Equal(sorted[j].ReceivedAt) {
			return sorted[i].ReceivedAt.After(sorted[j].ReceivedAt)
		}
		return sorted[i].Seq > sorted[j].Seq
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]Record, 0, len(sorted))
	for _, r := range sorted {
		k := decode.String(r.Fields[key], "")
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
