package streak

import "sort"

// ResolveGrants returns the reward roles earned at the given streak length
// that the member does not already hold. Every satisfied threshold fires;
// grants are additive, so no precedence between thresholds is needed.
// The result is deduplicated and sorted for deterministic application.
func ResolveGrants(streakDays int, rewards map[int]string, currentRoles []string) []string {
	if len(rewards) == 0 {
		return nil
	}

	held := make(map[string]struct{}, len(currentRoles))
	for _, roleID := range currentRoles {
		held[roleID] = struct{}{}
	}

	grants := make(map[string]struct{})
	for days, roleID := range rewards {
		if streakDays < days {
			continue
		}
		if _, ok := held[roleID]; ok {
			continue
		}
		grants[roleID] = struct{}{}
	}

	if len(grants) == 0 {
		return nil
	}
	result := make([]string, 0, len(grants))
	for roleID := range grants {
		result = append(result, roleID)
	}
	sort.Strings(result)
	return result
}
