package stats

import (
	"sync"
	"time"
)

// Daily is the per-day tally served by /api/stats/today (UTC dates).
type Daily struct {
	Date        string `json:"date"`
	Sheets      int    `json:"sheets"`
	Prompts     int    `json:"prompts"`
	Failures    int    `json:"failures"`
	Conflicts   int    `json:"conflicts"`
	Attachments int    `json:"attachments"`
}

var (
	statsMu sync.Mutex
	daily   = make(map[string]*Daily)
	now     = time.Now
)

func dateKey() string { return now().UTC().Format("2006-01-02") }

func bumpDaily(f func(*Daily)) {
	key := dateKey()
	statsMu.Lock()
	defer statsMu.Unlock()
	d := daily[key]
	if d == nil {
		d = &Daily{Date: key}
		daily[key] = d
	}
	f(d)
}

// Today returns a copy of today's tally.
func Today() Daily {
	key := dateKey()
	statsMu.Lock()
	defer statsMu.Unlock()
	if d, ok := daily[key]; ok {
		return *d
	}
	return Daily{Date: key}
}

// ResetDaily clears the in-memory daily map.
// Intended for tests and dev convenience.
func ResetDaily() {
	statsMu.Lock()
	defer statsMu.Unlock()
	for k := range daily {
		delete(daily, k)
	}
}
