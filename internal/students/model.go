package students

import "time"

// Student represents an enrolled student record. The admission number is
// unique per school, not globally.
type Student struct {
	ID              int64     `json:"id"`
	SchoolID        int64     `json:"school_id"`
	AdmissionNumber string    `json:"admission_number"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email"`
	LevelID         *int64    `json:"level_id,omitempty"`
	BranchID        *int64    `json:"branch_id,omitempty"`
	IsActive        bool      `json:"is_active"`
	EnrolledAt      time.Time `json:"enrolled_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// LevelCount aggregates active students per level for the stats endpoint.
type LevelCount struct {
	LevelID int64  `json:"level_id"`
	Level   string `json:"level"`
	Count   int    `json:"count"`
}

// Stats summarises a school's enrolment.
type Stats struct {
	SchoolID int64        `json:"school_id"`
	Total    int          `json:"total"`
	Active   int          `json:"active"`
	ByLevel  []LevelCount `json:"by_level"`
}
