// Package ordering computes display-order moves for admin reordering.
//
// The convention across collections: items sort by order ascending with
// created-at descending breaking ties. Moving an item shifts only that item's
// order by one; no neighbour is rewritten and no renumbering happens, so
// duplicate or gapped order values can occur and the sort tolerates them.
package ordering

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func (d Direction) Valid() bool {
	return d == Up || d == Down
}

// Position is one element of the already-sorted display sequence.
type Position struct {
	ID    string
	Order int
}

// TargetOrder returns the order value the item identified by id should take
// after moving in the given direction. ok is false when the move is a no-op:
// the first item moving up, the last item moving down, or an id that is not
// in the sequence at all.
func TargetOrder(seq []Position, id string, dir Direction) (int, bool) {
	idx := -1
	for i, p := range seq {
		if p.ID == id {
			idx = i
			break
		}
	}

	if idx == -1 {
		return 0, false
	}

	switch dir {
	case Up:
		if idx == 0 {
			return 0, false
		}
		return seq[idx].Order - 1, true
	case Down:
		if idx == len(seq)-1 {
			return 0, false
		}
		return seq[idx].Order + 1, true
	}

	return 0, false
}
