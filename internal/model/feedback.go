package model

import "time"

// FeedbackRecord is one correctness vote on a classification.
type FeedbackRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	Description    string    `json:"description"`
	Country        string    `json:"country"`
	Classification string    `json:"classification"`
	Correct        bool      `json:"correct"`
}
