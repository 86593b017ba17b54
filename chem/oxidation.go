package chem

import (
	"fmt"
	"math"
	"strings"
)

// maxOxidationCandidates bounds the assignments GuessOxidationStates tries.
const maxOxidationCandidates = 1 << 20

// Species is an element carrying an oxidation state.
type Species struct {
	Element   string
	Oxidation int
	Amount    float64
}

// String renders the species as e.g. "Fe3+" or "O2-".
func (s Species) String() string {
	switch {
	case s.Oxidation > 0:
		return fmt.Sprintf("%s%d+", s.Element, s.Oxidation)
	case s.Oxidation < 0:
		return fmt.Sprintf("%s%d-", s.Element, -s.Oxidation)
	default:
		return s.Element + "0+"
	}
}

// OxidComposition is a composition whose elements carry oxidation states.
type OxidComposition struct {
	Species []Species
}

// States returns the oxidation state of every species in order.
func (o OxidComposition) States() []float64 {
	out := make([]float64, len(o.Species))
	for i, s := range o.Species {
		out[i] = float64(s.Oxidation)
	}
	return out
}

// Composition drops the oxidation states.
func (o OxidComposition) Composition() Composition {
	b := newBuilder()
	for _, s := range o.Species {
		b.add(s.Element, s.Amount)
	}
	return b.build()
}

// Charge returns the total charge, 0 for a balanced composition.
func (o OxidComposition) Charge() float64 {
	var q float64
	for _, s := range o.Species {
		q += float64(s.Oxidation) * s.Amount
	}
	return q
}

// String renders the composition as e.g. "Fe3+2 O2-3".
func (o OxidComposition) String() string {
	parts := make([]string, len(o.Species))
	for i, s := range o.Species {
		parts[i] = s.String() + formatAmount(s.Amount)
	}
	return strings.Join(parts, " ")
}

// GuessOxidationStates assigns a single oxidation state to every element.
//
// Only the most electronegative element(s) may take negative states; every
// other element takes one of its positive common states (0 when it has
// none). Among charge-balanced assignments the one with the smallest sum of
// |state| wins, the first one found on ties, candidates being tried in
// composition order and ascending state order. When nothing balances, as for
// intermetallics and pure elements, every state is 0.
func GuessOxidationStates(c Composition) OxidComposition {
	symbols := c.symbols
	out := OxidComposition{Species: make([]Species, len(symbols))}
	for i, s := range symbols {
		out.Species[i] = Species{Element: s, Amount: c.amounts[s]}
	}
	if len(symbols) == 0 {
		return out
	}

	maxEN := math.Inf(-1)
	for _, s := range symbols {
		if en := bySymbol[s].Electronegativity; !math.IsNaN(en) && en > maxEN {
			maxEN = en
		}
	}

	candidates := make([][]int, len(symbols))
	total := 1
	for i, s := range symbols {
		el := bySymbol[s]
		negative := el.Electronegativity == maxEN
		for _, st := range el.OxidationStates {
			if (negative && st < 0) || (!negative && st > 0) {
				candidates[i] = append(candidates[i], st)
			}
		}
		if len(candidates[i]) == 0 {
			if negative {
				return out
			}
			candidates[i] = []int{0}
		}
		total *= len(candidates[i])
		if total > maxOxidationCandidates {
			return out
		}
	}

	best := -1
	var bestStates []int
	cur := make([]int, len(symbols))
	var walk func(i int, charge float64, cost int)
	walk = func(i int, charge float64, cost int) {
		if best >= 0 && cost >= best {
			return
		}
		if i == len(symbols) {
			if math.Abs(charge) <= amountTol*c.NumAtoms() {
				best = cost
				bestStates = append(bestStates[:0], cur...)
			}
			return
		}
		for _, st := range candidates[i] {
			cur[i] = st
			walk(i+1, charge+float64(st)*c.amounts[symbols[i]], cost+abs(st))
		}
	}
	walk(0, 0, 0)

	if best < 0 {
		return out
	}
	for i := range out.Species {
		out.Species[i].Oxidation = bestStates[i]
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
