package main

import (
	"net/http"

	"github.com/pefman/w40k-cheatsheet/internal/stats"
)

// GET /api/stats/today
func handleStatsToday(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, stats.Today())
}
