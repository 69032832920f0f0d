package coordinator

const (
	ValidationHistoryCap = 10
	EventHistoryCap      = 20
	// FailureHistoryCap holds every failure of a meal: 5 validators times 5 retries.
	FailureHistoryCap = 25
)

// Merge appends incoming to existing and keeps the newest limit entries. The
// result never shares a backing array with either input. An empty incoming
// slice returns existing as is.
func Merge[T any](existing, incoming []T, limit int) []T {
	if len(incoming) == 0 {
		return existing
	}

	total := len(existing) + len(incoming)
	skip := 0
	if limit > 0 && total > limit {
		skip = total - limit
	}

	out := make([]T, 0, total-skip)
	for i := skip; i < len(existing); i++ {
		out = append(out, existing[i])
	}
	from := max(0, skip-len(existing))
	out = append(out, incoming[from:]...)
	return out
}
