package models

import "time"

// News is a back-office managed post shown on the public site.
type News struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	CoverKey  *string   `json:"-"`
	CoverURL  *string   `json:"cover_url,omitempty"`
}
