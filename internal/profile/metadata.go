package profile

import (
	"fmt"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
)

// MetadataRegistry deduplicates metadata records within one run. It is not
// safe for concurrent use; profiles must be resolved in order.
type MetadataRegistry struct {
	records     []domain.MetadataRecord
	perPlatform map[string]int
}

// NewMetadataRegistry returns an empty registry.
func NewMetadataRegistry() *MetadataRegistry {
	return &MetadataRegistry{perPlatform: make(map[string]int)}
}

// Resolve returns the registered record with the same descriptive fields as
// candidate, or registers candidate under a new "<platform>_m<n>" id. The bool
// reports whether the record is new.
func (r *MetadataRegistry) Resolve(candidate domain.MetadataRecord) (domain.MetadataRecord, bool) {
	for _, rec := range r.records {
		if rec.SameDescription(candidate) {
			return rec, false
		}
	}
	n := r.perPlatform[candidate.PlatformNumber]
	candidate.ID = fmt.Sprintf("%s_m%d", candidate.PlatformNumber, n)
	r.perPlatform[candidate.PlatformNumber] = n + 1
	r.records = append(r.records, candidate)
	return candidate, true
}

// Len returns the number of distinct records registered so far.
func (r *MetadataRegistry) Len() int {
	return len(r.records)
}
