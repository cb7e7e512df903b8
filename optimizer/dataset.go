package optimizer

import (
	"slices"
	"sort"
	"time"

	"github.com/sky-flux/cadence"
)

// review is one training event of an item's history.
type review struct {
	grade       cadence.Grade
	elapsedDays float64 // since the previous review; 0 for the first
	label       float64 // 0 if forgotten, 1 otherwise
	at          time.Time
}

// dataset maps item IDs to their reviews in time order.
type dataset map[string][]review

// formatRevlogs groups logs by item and sorts each group by time.
// Logs with an invalid grade are skipped.
func formatRevlogs(logs []cadence.ReviewLog) dataset {
	if len(logs) == 0 {
		return nil
	}

	groups := make(map[string][]cadence.ReviewLog)
	for _, log := range logs {
		if !log.Grade.IsValid() {
			continue
		}
		groups[log.ItemID] = append(groups[log.ItemID], log)
	}

	data := make(dataset, len(groups))
	for id, itemLogs := range groups {
		sort.SliceStable(itemLogs, func(i, j int) bool {
			return itemLogs[i].ReviewedAt.Before(itemLogs[j].ReviewedAt)
		})

		reviews := make([]review, len(itemLogs))
		for i, log := range itemLogs {
			var elapsed float64
			if i > 0 {
				elapsed = log.ReviewedAt.Sub(itemLogs[i-1].ReviewedAt).Hours() / 24.0
			}
			label := 1.0
			if log.Grade == cadence.Forgot {
				label = 0
			}
			reviews[i] = review{
				grade:       log.Grade,
				elapsedDays: elapsed,
				label:       label,
				at:          log.ReviewedAt,
			}
		}
		data[id] = reviews
	}
	return data
}

// truncate caps every history at maxLen reviews.
func (d dataset) truncate(maxLen int) {
	for id, reviews := range d {
		if len(reviews) > maxLen {
			d[id] = reviews[:maxLen]
		}
	}
}

// ids returns the item IDs in sorted order.
func (d dataset) ids() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// countCrossDayReviews counts reviews at least one day after the previous one.
// The first review of an item never counts.
func countCrossDayReviews(d dataset) int {
	count := 0
	for _, reviews := range d {
		for _, r := range reviews {
			if r.elapsedDays >= 1.0 {
				count++
			}
		}
	}
	return count
}
