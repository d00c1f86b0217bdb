package registry

import (
	"context"

	"github.com/hashicorp-forge/docvault/pkg/models"
)

// SystemStats is the registry-wide aggregate snapshot.
type SystemStats struct {
	// TotalCreated and StorageBytes come from the incrementally
	// maintained counters.
	TotalCreated int64 `json:"totalCreated"`
	StorageBytes int64 `json:"totalStorageBytes"`

	// Active, Archived, and Deleted are recomputed by scanning the status
	// of every document ever created.
	Active   int64 `json:"active"`
	Archived int64 `json:"archived"`
	Deleted  int64 `json:"deleted"`
}

// GetSystemStats computes the aggregate snapshot. This scans every document
// row ever created, which is fine for a read-only diagnostic off the hot
// path.
func (r *Registry) GetSystemStats(ctx context.Context) (SystemStats, error) {
	tx := r.db.WithContext(ctx)

	state, err := models.GetRegistryState(tx)
	if err != nil {
		return SystemStats{}, err
	}

	counts, err := models.CountDocumentsByStatus(tx)
	if err != nil {
		return SystemStats{}, err
	}

	return SystemStats{
		TotalCreated: state.TotalCreated,
		StorageBytes: state.StorageBytes,
		Active:       counts[models.DocumentStatusActive],
		Archived:     counts[models.DocumentStatusArchived],
		Deleted:      counts[models.DocumentStatusDeleted],
	}, nil
}
