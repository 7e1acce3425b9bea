package model

import "github.com/shopspring/decimal"

// StatusCount is one line of the summary report.
type StatusCount struct {
	Status RequestStatus   `json:"status"`
	Count  int             `json:"count"`
	Share  decimal.Decimal `json:"share"` // percentage of total, 2 places
}

// SummaryReport aggregates request totals per status
type SummaryReport struct {
	Total    int           `json:"total"`
	ByStatus []StatusCount `json:"by_status"`
}

// Count returns the tally for one status.
func (r SummaryReport) Count(s RequestStatus) int {
	for _, c := range r.ByStatus {
		if c.Status == s {
			return c.Count
		}
	}
	return 0
}
