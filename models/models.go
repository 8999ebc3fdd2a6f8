package models

import (
	"time"
)

// Movie is a catalog title. VideoURL points into the media store and is only
// handed out to subscribed principals.
type Movie struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnail_url"`
	VideoURL     string    `json:"-"`
	Category     string    `json:"category"`
	Year         int       `json:"year"`
	Rating       string    `json:"rating"`
	Duration     string    `json:"duration"`
	Genre        []string  `json:"genre"`
	Featured     bool      `json:"featured"`
	CreatedAt    time.Time `json:"created_at"`
}

// MovieFilter narrows a catalog listing. Empty fields do not filter.
type MovieFilter struct {
	Category string
	Search   string
}

// Stream is the subscription-gated view of a title.
type Stream struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	VideoURL string `json:"video_url"`
}
