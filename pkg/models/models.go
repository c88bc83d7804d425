package models

import "time"

// ChatMessage is one question/response exchange with the assistant
type ChatMessage struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Question  string    `json:"question"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// Feedback is a free-text feedback submission with its scored sentiment
type Feedback struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Sentiment string    `json:"sentiment"` // Positive, Neutral, Negative
	CreatedAt time.Time `json:"created_at"`
}

// Concern statuses, in workflow order.
const (
	ConcernOpen     = "Open"
	ConcernInReview = "In Review"
	ConcernResolved = "Resolved"
)

// Concern is a tracked citizen concern. Reference is the public ID a
// citizen quotes when following up.
type Concern struct {
	ID        int64     `json:"id"`
	Reference string    `json:"reference"`
	Subject   string    `json:"subject"`
	Detail    string    `json:"detail"`
	Contact   string    `json:"contact,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service is an entry in the government services directory
type Service struct {
	ID          int64    `yaml:"-" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Category    string   `yaml:"category" json:"category"`
	Description string   `yaml:"description" json:"description"`
	Keywords    []string `yaml:"keywords" json:"keywords"`
	URL         string   `yaml:"url,omitempty" json:"url,omitempty"`
	Phone       string   `yaml:"phone,omitempty" json:"phone,omitempty"`
}

// SentimentCounts aggregates feedback tallies per category
type SentimentCounts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Total returns the number of scored feedback submissions
func (c SentimentCounts) Total() int {
	return c.Positive + c.Neutral + c.Negative
}

// ModelStatus describes the resolved model state for display surfaces
// (dashboard, health endpoint, modelcheck output).
type ModelStatus struct {
	Loaded    bool   `json:"loaded"`
	ModelID   string `json:"model_id,omitempty"`
	Device    string `json:"device,omitempty"`
	Quantized bool   `json:"quantized"`
	Fallback  bool   `json:"fallback"`
}

// DashboardStats is everything the dashboard page renders
type DashboardStats struct {
	Model             ModelStatus
	TotalInteractions int
	Sentiment         SentimentCounts
	RecentConcerns    []Concern
	RecentChats       []ChatMessage
	OpenConcerns      int
}
