package levels

// Level represents a grade level within a school.
type Level struct {
	ID       int64  `json:"id"`
	SchoolID int64  `json:"school_id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Rank     int    `json:"rank"`
}
