package storage

import "github.com/valter-silva-au/flywheel/pkg/models"

// NextID returns the smallest positive integer not used by any record: 1
// for an empty set, the first gap where IDs are non-contiguous, max+1 only
// when IDs already run contiguously from 1. Reusing freed IDs keeps them
// small and stable after removals.
//
// Callers must invoke NextID while holding the store's mutex for the whole
// load-compute-append-save cycle; two racers computing from the same
// snapshot would otherwise mint the same ID.
func NextID(todos []models.Todo) int {
	used := make(map[int]struct{}, len(todos))
	for _, t := range todos {
		if t.ID > 0 {
			used[t.ID] = struct{}{}
		}
	}
	for id := 1; ; id++ {
		if _, taken := used[id]; !taken {
			return id
		}
	}
}
