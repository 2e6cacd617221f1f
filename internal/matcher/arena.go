package matcher

import "apflow/pkg/models"

// slotArena holds one slot per PO line, indexed by PO line position.
// It is created per Match call and discarded with it.
type slotArena []slot

func newArena(lines []models.POLineItem) slotArena {
	arena := make(slotArena, len(lines))
	for i, line := range lines {
		arena[i] = slot{
			poIndex: i,
			skuKey:  SKUKey(line.SKU),
			descKey: DescriptionKey(line.Description),
		}
	}
	return arena
}

// take marks the first unused slot (in PO order) accepted by pred as used and
// returns its PO index, or -1.
func (a slotArena) take(pred func(*slot) bool) int {
	for i := range a {
		s := &a[i]
		if s.used {
			continue
		}
		// slots without a key never match
		if pred(s) && (s.skuKey != "" || s.descKey != "") {
			s.used = true
			return s.poIndex
		}
	}
	return -1
}

// unused lists PO indices no invoice line consumed.
func (a slotArena) unused() []int {
	var out []int
	for _, s := range a {
		if !s.used {
			out = append(out, s.poIndex)
		}
	}
	return out
}
