package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/model"
)

// Archive converts a snapshot into a storage record.
func Archive(s Snapshot, source model.SnapshotSource, at time.Time) (*model.Snapshot, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return &model.Snapshot{
		Source:       source,
		StartedAt:    s.StartedAt,
		Decodes:      int64(s.ErrorDecoder.Total),
		Calculations: int64(s.PricingCalculator.Total),
		StatusChecks: int64(s.StatusPage.Total),
		Data:         string(data),
		CapturedAt:   at,
	}, nil
}

// Restore decodes the snapshot held by a storage record.
func Restore(rec model.Snapshot) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal([]byte(rec.Data), &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", rec.ID, err)
	}
	return s, nil
}
