package roster

import (
	"sort"

	"github.com/aksoyhq/dutyroster/internal/model"
)

// Statistics counts, for every person appearing anywhere in the history, how
// many completed events they served on. History arrives newest first, so the
// snapshot carried for display is the one from the most recent event naming
// that sicil. Rows are ordered by descending count; ties keep encounter
// order.
func Statistics(history []model.CompletedEvent) []model.PersonnelUsage {
	counts := make(map[string]int)
	snapshots := make(map[string]model.Personnel)
	var order []string

	for _, ev := range history {
		for _, p := range ev.Personnel {
			if _, seen := counts[p.Sicil]; !seen {
				snapshots[p.Sicil] = p
				order = append(order, p.Sicil)
			}
			counts[p.Sicil]++
		}
	}

	usage := make([]model.PersonnelUsage, 0, len(order))
	for _, sicil := range order {
		usage = append(usage, model.PersonnelUsage{
			Personnel: snapshots[sicil],
			Count:     counts[sicil],
		})
	}
	sort.SliceStable(usage, func(i, j int) bool {
		return usage[i].Count > usage[j].Count
	})
	return usage
}
