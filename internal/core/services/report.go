package services

import "sort"

// Score bands for the end-of-job report, matching the relevance
// threshold at the low end.
const (
	bandHigh    = "0.9-1.0"
	bandMidHigh = "0.7-0.9"
	bandMid     = "0.5-0.7"
	bandLow     = "0.3-0.5"
)

// scoreBands buckets final scores for the summary report.
func scoreBands(scores []float64) map[string]int {
	if len(scores) == 0 {
		return nil
	}
	bands := map[string]int{}
	for _, s := range scores {
		switch {
		case s >= 0.9:
			bands[bandHigh]++
		case s >= 0.7:
			bands[bandMidHigh]++
		case s >= 0.5:
			bands[bandMid]++
		default:
			bands[bandLow]++
		}
	}
	return bands
}

// sortedKeys returns the set's members sorted for stable output.
func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
