package models

// InsightRequest is the body of POST /get-insight
type InsightRequest struct {
	Query string `json:"query"`
}
