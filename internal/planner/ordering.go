// internal/planner/ordering.go
package planner

import (
	"fmt"
	"math/rand/v2"
)

// ShuffleStrategy randomly permutes the interior stops. It is a
// placeholder and makes no attempt to shorten the route.
type ShuffleStrategy struct {
	// Rand is used when set, the global source otherwise.
	Rand *rand.Rand
}

func (s ShuffleStrategy) Order(interior []Stop) []Stop {
	out := append([]Stop{}, interior...)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if s.Rand != nil {
		s.Rand.Shuffle(len(out), swap)
	} else {
		rand.Shuffle(len(out), swap)
	}
	return out
}

// checkPermutation verifies that got holds exactly the stops of want,
// in any order.
func checkPermutation(want []Stop, got []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: got %d stops, want %d", ErrInvalidOrder, len(got), len(want))
	}
	pending := make(map[string]int, len(want))
	for _, s := range want {
		pending[s.ID]++
	}
	for _, id := range got {
		if pending[id] == 0 {
			return fmt.Errorf("%w: unexpected or repeated stop %q", ErrInvalidOrder, id)
		}
		pending[id]--
	}
	return nil
}

func stopIDs(stops []Stop) []string {
	ids := make([]string, len(stops))
	for i, s := range stops {
		ids[i] = s.ID
	}
	return ids
}
