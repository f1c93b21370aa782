package repository

import "context"

// depLookup returns the direct dependencies of every tag in frontier.
type depLookup func(ctx context.Context, frontier []int64) ([]int64, error)

// closeOver expands roots to their transitive closure over the dependency
// relation. Each round only looks up tags first seen in the previous round,
// so the loop ends when a round adds nothing, cycles included.
func closeOver(ctx context.Context, roots []int64, lookup depLookup) ([]int64, error) {
	seen := make(map[int64]struct{}, len(roots))
	frontier := make([]int64, 0, len(roots))
	for _, id := range roots {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		frontier = append(frontier, id)
	}

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		deps, err := lookup(ctx, frontier)
		if err != nil {
			return nil, err
		}
		fresh := make([]int64, 0, len(deps))
		for _, id := range deps {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			fresh = append(fresh, id)
		}
		frontier = fresh
	}

	closure := make([]int64, 0, len(seen))
	for id := range seen {
		closure = append(closure, id)
	}
	return sortIDs(closure), nil
}
