package reconcile

import (
	"slices"
	"strings"

	"github.com/julianstephens/studyloop/internal/models"
)

// dedupDay keeps one record per objective: highest status priority, then
// most time spent, then the earliest created. It returns the survivors keyed
// by objective and the ids of the losers.
func dedupDay(records []models.ProgressRecord) (map[string]models.ProgressRecord, []string) {
	groups := map[string][]models.ProgressRecord{}
	for _, r := range records {
		groups[r.ObjectiveID] = append(groups[r.ObjectiveID], r)
	}

	kept := make(map[string]models.ProgressRecord, len(groups))
	var drop []string
	for objectiveID, group := range groups {
		if len(group) > 1 {
			slices.SortStableFunc(group, compareKeep)
			for _, r := range group[1:] {
				drop = append(drop, r.ID)
			}
		}
		kept[objectiveID] = group[0]
	}
	slices.Sort(drop)
	return kept, drop
}

// compareKeep orders records so the one to keep sorts first.
func compareKeep(a, b models.ProgressRecord) int {
	if pa, pb := a.Status.Priority(), b.Status.Priority(); pa != pb {
		return pb - pa
	}
	if a.TimeSpent != b.TimeSpent {
		return b.TimeSpent - a.TimeSpent
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// pruneOrphans removes from kept every generated record whose objective is no
// longer scheduled and returns their ids. User-asserted records stay.
func pruneOrphans(kept map[string]models.ProgressRecord, scheduled map[string]models.TemplateItem) []string {
	var orphans []string
	for objectiveID, r := range kept {
		if _, ok := scheduled[objectiveID]; ok {
			continue
		}
		if r.Status.Generated() {
			orphans = append(orphans, r.ID)
			delete(kept, objectiveID)
		}
	}
	slices.Sort(orphans)
	return orphans
}

// expectedStatus is the status a generated record must carry on day d.
func expectedStatus(d, today models.Day) models.Status {
	if d.Before(today) {
		return models.StatusMissed
	}
	return models.StatusPending
}

// missingItems returns the scheduled objectives without a surviving record,
// sorted for deterministic writes.
func missingItems(kept map[string]models.ProgressRecord, scheduled map[string]models.TemplateItem) []string {
	var missing []string
	for objectiveID := range scheduled {
		if _, ok := kept[objectiveID]; !ok {
			missing = append(missing, objectiveID)
		}
	}
	slices.Sort(missing)
	return missing
}
