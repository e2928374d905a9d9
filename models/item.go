// Package models defines data structures for the lister.
package models

// Item represents one Chrome Web Store entry discovered via the sitemap.
// A populated Item has passed validation; partially filled records are
// never passed downstream.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Page string `json:"page"`
	File string `json:"file"`
}

// ShardStats counts URL dispositions within a single shard sitemap.
// TotalURLs is always the sum of the other three.
type ShardStats struct {
	TotalURLs         int
	InvalidURLs       int
	FailedExtractions int
	ValidItems        int
}

// ShardResult is what a shard worker hands back to the orchestrator.
type ShardResult struct {
	Items []Item
	Stats ShardStats
}

// RunStats holds the overall result of a collection run.
type RunStats struct {
	TotalShards    int
	FailedShards   int
	TotalURLs      int
	InvalidURLs    int
	FailedExtracts int
	ValidItems     int
	DuplicateItems int
	UniqueItems    int
}

// SuccessRate returns the percentage of shards that completed without error.
func (r RunStats) SuccessRate() float64 {
	if r.TotalShards == 0 {
		return 0
	}
	return float64(r.TotalShards-r.FailedShards) / float64(r.TotalShards) * 100
}
