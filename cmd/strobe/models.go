package main

// View models for daemon API responses.

type captureView struct {
	State                   string `json:"state"`
	SessionID               string `json:"session_id"`
	Theme                   string `json:"theme"`
	CountdownRemaining      int    `json:"countdown_remaining"`
	MinimumDisplayRemaining int    `json:"minimum_display_remaining"`
	ErrorMessage            string `json:"error_message"`
	ErrorCategory           string `json:"error_category"`
}

type slideshowView struct {
	Active          bool   `json:"active"`
	PairIndex       int    `json:"pair_index"`
	PairCount       int    `json:"pair_count"`
	ShowingOriginal bool   `json:"showing_original"`
	PairTimestamp   string `json:"pair_timestamp"`
	DisplaySeconds  int    `json:"display_seconds"`
}

type statisticsView struct {
	PairCount      int     `json:"pair_count"`
	OrphanCount    int     `json:"orphan_count"`
	TotalFiles     int     `json:"total_files"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	OldestAgeDays  float64 `json:"oldest_age_days"`
	NeedsCleanup   bool    `json:"needs_cleanup"`
	FreeBytes      uint64  `json:"free_bytes"`
	TotalFSBytes   uint64  `json:"total_fs_bytes"`
}

type statusView struct {
	Capture    captureView    `json:"capture"`
	Slideshow  slideshowView  `json:"slideshow"`
	Statistics statisticsView `json:"statistics"`
	Clients    int            `json:"display_clients"`
}

type pairView struct {
	Timestamp string `json:"timestamp"`
	Original  string `json:"original"`
	Themed    string `json:"themed"`
	Bytes     int64  `json:"bytes"`
	CreatedAt string `json:"created_at"`
}

type pairsView struct {
	Pairs []pairView `json:"pairs"`
}

type cleanupView struct {
	PairsRemoved   int      `json:"pairs_removed"`
	OrphansRemoved int      `json:"orphans_removed"`
	FilesRemoved   int      `json:"files_removed"`
	BytesFreed     int64    `json:"bytes_freed"`
	Failures       []string `json:"failures"`
}
