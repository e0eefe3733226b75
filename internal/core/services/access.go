package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

// managedUserIDs returns the developers a manager can see: direct reports plus
// members of every team the manager owns.
func managedUserIDs(ctx context.Context, users domain.UserRepository, teams domain.TeamRepository, managerID string) (map[string]bool, error) {
	ids := make(map[string]bool)

	reports, err := users.ListByManagerID(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	for _, u := range reports {
		ids[u.ID] = true
	}

	owned, err := teams.ListByManagerID(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	for _, t := range owned {
		for _, m := range t.Members {
			ids[m] = true
		}
	}

	return ids, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
