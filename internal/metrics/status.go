package metrics

import "sort"

// StatusCount is one row of the status distribution.
type StatusCount struct {
	Status string `json:"status" yaml:"status"`
	Count  int    `json:"count" yaml:"count"`
}

// Share returns the row's percentage of total.
func (s StatusCount) Share(total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(s.Count) / float64(total) * 100
}

// SortStatusCounts converts a status->count map into rows sorted
// lexicographically by the status string, so "200" < "404" < "Error".
func SortStatusCounts(counts map[string]int) []StatusCount {
	if len(counts) == 0 {
		return nil
	}
	rows := make([]StatusCount, 0, len(counts))
	for status, count := range counts {
		rows = append(rows, StatusCount{Status: status, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Status < rows[j].Status
	})
	return rows
}
