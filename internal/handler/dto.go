package handler

import "github.com/iabetor/feedrelay/internal/rss"

type FeedResponse struct {
	Success     bool          `json:"success"`
	Articles    []rss.Article `json:"articles"`
	Count       int           `json:"count"`
	LastUpdated string        `json:"lastUpdated"`
}

type ErrorResponse struct {
	Success  bool          `json:"success"`
	Error    string        `json:"error"`
	Articles []rss.Article `json:"articles"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Sources int    `json:"sources"`
}
