package domain

import "time"

// Link maps a short code to its target URL plus click accounting.
type Link struct {
	Code        string     `json:"code"`
	TargetURL   string     `json:"target_url"`
	Clicks      int64      `json:"clicks"`
	LastClicked *time.Time `json:"last_clicked"` // nil until first redirect
	CreatedAt   time.Time  `json:"created_at"`
}
