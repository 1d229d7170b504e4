package terms

import "time"

// Term is a grading period within an academic session (e.g. "Semester 1").
type Term struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	SchoolID  int64     `json:"school_id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
