package models

// ReportRow counts the assets of one category by state
type ReportRow struct {
	Category            string `json:"category" db:"category"`
	Total               int    `json:"total" db:"total"`
	Assigned            int    `json:"assigned" db:"assigned"`
	Available           int    `json:"available" db:"available"`
	NotAvailable        int    `json:"notAvailable" db:"not_available"`
	WaitingForRecycling int    `json:"waitingForRecycling" db:"waiting_for_recycling"`
	Recycled            int    `json:"recycled" db:"recycled"`
}
