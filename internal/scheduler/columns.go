package scheduler

// Placement is the side-by-side position of an event.
type Placement struct {
	Column       int
	TotalColumns int
}

// AssignColumns places ranges, sorted by start, into the lowest free column.
// TotalColumns counts the columns used by the range itself and every range
// that directly intersects it; overlap is not followed transitively.
func AssignColumns(ranges []Range) []Placement {
	out := make([]Placement, len(ranges))

	type slot struct {
		end    int
		column int
	}
	var active []slot
	for i, r := range ranges {
		kept := active[:0]
		for _, a := range active {
			if a.end > r.Start {
				kept = append(kept, a)
			}
		}
		active = kept

		col := 0
		for taken := true; taken; {
			taken = false
			for _, a := range active {
				if a.column == col {
					col++
					taken = true
					break
				}
			}
		}
		out[i].Column = col
		active = append(active, slot{end: r.End, column: col})
	}

	for i, r := range ranges {
		highest := out[i].Column
		for j, other := range ranges {
			if i != j && other.Start < r.End && other.End > r.Start {
				highest = max(highest, out[j].Column)
			}
		}
		out[i].TotalColumns = highest + 1
	}
	return out
}
