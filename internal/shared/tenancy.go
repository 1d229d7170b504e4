package shared

import (
	"fmt"
	"net/http"
	"strconv"
)

// EffectiveSchoolID decides which school a request operates on. A
// school-scoped principal always acts within its own school; a system admin
// may select one via the school_id query parameter or act across all schools
// by omitting it.
func EffectiveSchoolID(p *Principal, r *http.Request) (*int64, error) {
	if p == nil {
		return nil, ErrUnauthorized
	}
	if !p.IsSystemAdmin() {
		return p.SchoolID, nil
	}
	raw := r.URL.Query().Get("school_id")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("school_id must be numeric: %w", ErrValidationFailed)
	}
	return &id, nil
}
