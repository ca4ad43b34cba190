package drift

import (
	"sort"

	schemaruleset "github.com/davidahmann/warden/core/schema/v1/ruleset"
)

// Detect compares baseline and current reachability graphs under the
// two-factor expansion guard: new reachable edges pass only when the
// contract's invariant hash changed AND the expansion is explicitly
// acknowledged. Tightening or a no-op always passes.
//
// Edge diffs are materialized as lexicographically sorted sequences, so the
// same pair of graphs always yields byte-identical results.
func Detect(
	baseline, current schemaruleset.Graph,
	baselineInvariantHash, currentInvariantHash string,
	acknowledgeExpansion bool,
) schemaruleset.DriftResult {
	baselineEdges := edgeSet(baseline)
	currentEdges := edgeSet(current)

	added := sortedDifference(currentEdges, baselineEdges)
	removed := sortedDifference(baselineEdges, currentEdges)

	if len(added) == 0 {
		return schemaruleset.DriftResult{
			Pass:         true,
			AddedEdges:   added,
			RemovedEdges: removed,
			Reason:       schemaruleset.DriftNoExpansion,
		}
	}

	if baselineInvariantHash == currentInvariantHash {
		return schemaruleset.DriftResult{
			Pass:         false,
			AddedEdges:   added,
			RemovedEdges: removed,
			Reason:       schemaruleset.DriftExpansionWithoutRevision,
		}
	}

	if acknowledgeExpansion {
		return schemaruleset.DriftResult{
			Pass:         true,
			AddedEdges:   added,
			RemovedEdges: removed,
			Reason:       schemaruleset.DriftExpansionAcknowledged,
		}
	}

	return schemaruleset.DriftResult{
		Pass:         false,
		AddedEdges:   added,
		RemovedEdges: removed,
		Reason:       schemaruleset.DriftExpansionNotAcknowledged,
	}
}

func edgeSet(graph schemaruleset.Graph) map[schemaruleset.Edge]struct{} {
	edges := make(map[schemaruleset.Edge]struct{})
	for actor, actions := range graph {
		for _, action := range actions {
			edges[schemaruleset.Edge{Actor: actor, Action: action}] = struct{}{}
		}
	}
	return edges
}

// sortedDifference returns left minus right, ordered by (actor, action).
func sortedDifference(left, right map[schemaruleset.Edge]struct{}) []schemaruleset.Edge {
	out := make([]schemaruleset.Edge, 0)
	for edge := range left {
		if _, ok := right[edge]; !ok {
			out = append(out, edge)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Actor != out[j].Actor {
			return out[i].Actor < out[j].Actor
		}
		return out[i].Action < out[j].Action
	})
	return out
}
