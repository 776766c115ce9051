package constants

// Progress statuses as stored in the ledger.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusMissed    = "missed"
	StatusPartial   = "partial"
	StatusSkipped   = "skipped"
)

// StatusPriority ranks statuses for duplicate collapse: the highest rank survives.
// completed > partial > skipped > missed > pending
var StatusPriority = map[string]int{
	StatusCompleted: 5,
	StatusPartial:   4,
	StatusSkipped:   3,
	StatusMissed:    2,
	StatusPending:   1,
}

// AllStatuses lists every valid status in priority order.
var AllStatuses = []string{StatusCompleted, StatusPartial, StatusSkipped, StatusMissed, StatusPending}

func init() {
	// Every status must carry a distinct rank, otherwise dedup becomes order dependent
	seen := make(map[int]bool, len(StatusPriority))
	for _, s := range AllStatuses {
		rank, ok := StatusPriority[s]
		if !ok || seen[rank] {
			panic("StatusPriority must assign a distinct rank to every status")
		}
		seen[rank] = true
	}
}
