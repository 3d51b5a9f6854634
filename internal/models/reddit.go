package models

import "time"

// RedditPost is a post pulled from r/wallstreetbets.
type RedditPost struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Text        string     `json:"text"`
	URL         string     `json:"url"`
	Score       int        `json:"score"`
	NumComments int        `json:"num_comments"`
	UpvoteRatio float64    `json:"upvote_ratio"`
	CreatedUTC  time.Time  `json:"created_utc"`
	Sentiment   SignalKind `json:"sentiment"`
}
