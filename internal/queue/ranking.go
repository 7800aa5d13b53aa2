package queue

import "sort"

// rankedOrder is the SQL mirror of rankLess. Any query that returns
// pending items in queue order must use exactly this clause.
const rankedOrder = "score DESC, submitted_at ASC, id ASC"

// rankLess reports whether a ranks strictly before b in the queue:
// higher score first, then earlier submission, then smaller id.
// The id tie-break makes the order total, so two snapshots with the
// same scores always list identically.
func rankLess(a, b Item) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.ID < b.ID
}

// RankItems sorts items into queue order in place.
func RankItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return rankLess(items[i], items[j])
	})
}
