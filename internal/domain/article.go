package domain

import "time"

// Article is an ingested news article, classified into the fixed topic
// set at ingestion time.
type Article struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Topic     string    `json:"topic"`
	URL       *string   `json:"url,omitempty"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one entry of the local per-thread conversation log.
type Message struct {
	ID        int64     `json:"-"`
	ThreadID  string    `json:"-"`
	Role      string    `json:"role"`
	Action    string    `json:"action,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
