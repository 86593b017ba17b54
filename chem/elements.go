// Package chem holds the small amount of chemistry the featurizers need:
// an element table, compositions parsed from formulas, oxidation-state
// guesses and crystal structures decoded from the dataset file.
package chem

import "math"

// Element is one row of the periodic table.
type Element struct {
	Z                 int
	Symbol            string
	Name              string
	AtomicMass        float64 // g/mol
	Electronegativity float64 // Pauling; NaN where undefined
	Group             int     // 1..18; lanthanides and actinides are group 3
	OxidationStates   []int   // common oxidation states, ascending
}

// Row returns the period of the element.
func (e Element) Row() int {
	switch {
	case e.Z <= 2:
		return 1
	case e.Z <= 10:
		return 2
	case e.Z <= 18:
		return 3
	case e.Z <= 36:
		return 4
	case e.Z <= 54:
		return 5
	case e.Z <= 86:
		return 6
	default:
		return 7
	}
}

var nan = math.NaN()

var elements = []Element{
	{1, "H", "Hydrogen", 1.008, 2.20, 1, []int{-1, 1}},
	{2, "He", "Helium", 4.0026, nan, 18, nil},
	{3, "Li", "Lithium", 6.94, 0.98, 1, []int{1}},
	{4, "Be", "Beryllium", 9.0122, 1.57, 2, []int{2}},
	{5, "B", "Boron", 10.81, 2.04, 13, []int{3}},
	{6, "C", "Carbon", 12.011, 2.55, 14, []int{-4, 4}},
	{7, "N", "Nitrogen", 14.007, 3.04, 15, []int{-3, 3, 5}},
	{8, "O", "Oxygen", 15.999, 3.44, 16, []int{-2}},
	{9, "F", "Fluorine", 18.998, 3.98, 17, []int{-1}},
	{10, "Ne", "Neon", 20.180, nan, 18, nil},
	{11, "Na", "Sodium", 22.990, 0.93, 1, []int{1}},
	{12, "Mg", "Magnesium", 24.305, 1.31, 2, []int{2}},
	{13, "Al", "Aluminium", 26.982, 1.61, 13, []int{3}},
	{14, "Si", "Silicon", 28.085, 1.90, 14, []int{-4, 4}},
	{15, "P", "Phosphorus", 30.974, 2.19, 15, []int{-3, 3, 5}},
	{16, "S", "Sulfur", 32.06, 2.58, 16, []int{-2, 2, 4, 6}},
	{17, "Cl", "Chlorine", 35.45, 3.16, 17, []int{-1, 1, 3, 5, 7}},
	{18, "Ar", "Argon", 39.948, nan, 18, nil},
	{19, "K", "Potassium", 39.098, 0.82, 1, []int{1}},
	{20, "Ca", "Calcium", 40.078, 1.00, 2, []int{2}},
	{21, "Sc", "Scandium", 44.956, 1.36, 3, []int{3}},
	{22, "Ti", "Titanium", 47.867, 1.54, 4, []int{4}},
	{23, "V", "Vanadium", 50.942, 1.63, 5, []int{5}},
	{24, "Cr", "Chromium", 51.996, 1.66, 6, []int{3, 6}},
	{25, "Mn", "Manganese", 54.938, 1.55, 7, []int{2, 4, 7}},
	{26, "Fe", "Iron", 55.845, 1.83, 8, []int{2, 3}},
	{27, "Co", "Cobalt", 58.933, 1.88, 9, []int{2, 3}},
	{28, "Ni", "Nickel", 58.693, 1.91, 10, []int{2}},
	{29, "Cu", "Copper", 63.546, 1.90, 11, []int{2}},
	{30, "Zn", "Zinc", 65.38, 1.65, 12, []int{2}},
	{31, "Ga", "Gallium", 69.723, 1.81, 13, []int{3}},
	{32, "Ge", "Germanium", 72.630, 2.01, 14, []int{-4, 2, 4}},
	{33, "As", "Arsenic", 74.922, 2.18, 15, []int{-3, 3, 5}},
	{34, "Se", "Selenium", 78.971, 2.55, 16, []int{-2, 2, 4, 6}},
	{35, "Br", "Bromine", 79.904, 2.96, 17, []int{-1, 1, 3, 5}},
	{36, "Kr", "Krypton", 83.798, 3.00, 18, []int{2}},
	{37, "Rb", "Rubidium", 85.468, 0.82, 1, []int{1}},
	{38, "Sr", "Strontium", 87.62, 0.95, 2, []int{2}},
	{39, "Y", "Yttrium", 88.906, 1.22, 3, []int{3}},
	{40, "Zr", "Zirconium", 91.224, 1.33, 4, []int{4}},
	{41, "Nb", "Niobium", 92.906, 1.60, 5, []int{5}},
	{42, "Mo", "Molybdenum", 95.95, 2.16, 6, []int{4, 6}},
	{43, "Tc", "Technetium", 98, 1.90, 7, []int{4, 7}},
	{44, "Ru", "Ruthenium", 101.07, 2.20, 8, []int{3, 4}},
	{45, "Rh", "Rhodium", 102.91, 2.28, 9, []int{3}},
	{46, "Pd", "Palladium", 106.42, 2.20, 10, []int{0, 2, 4}},
	{47, "Ag", "Silver", 107.87, 1.93, 11, []int{1}},
	{48, "Cd", "Cadmium", 112.41, 1.69, 12, []int{2}},
	{49, "In", "Indium", 114.82, 1.78, 13, []int{3}},
	{50, "Sn", "Tin", 118.71, 1.96, 14, []int{-4, 2, 4}},
	{51, "Sb", "Antimony", 121.76, 2.05, 15, []int{-3, 3, 5}},
	{52, "Te", "Tellurium", 127.60, 2.10, 16, []int{-2, 2, 4, 6}},
	{53, "I", "Iodine", 126.90, 2.66, 17, []int{-1, 1, 3, 5, 7}},
	{54, "Xe", "Xenon", 131.29, 2.60, 18, []int{2, 4, 6}},
	{55, "Cs", "Caesium", 132.91, 0.79, 1, []int{1}},
	{56, "Ba", "Barium", 137.33, 0.89, 2, []int{2}},
	{57, "La", "Lanthanum", 138.91, 1.10, 3, []int{3}},
	{58, "Ce", "Cerium", 140.12, 1.12, 3, []int{3, 4}},
	{59, "Pr", "Praseodymium", 140.91, 1.13, 3, []int{3}},
	{60, "Nd", "Neodymium", 144.24, 1.14, 3, []int{3}},
	{61, "Pm", "Promethium", 145, 1.13, 3, []int{3}},
	{62, "Sm", "Samarium", 150.36, 1.17, 3, []int{3}},
	{63, "Eu", "Europium", 151.96, 1.20, 3, []int{2, 3}},
	{64, "Gd", "Gadolinium", 157.25, 1.20, 3, []int{3}},
	{65, "Tb", "Terbium", 158.93, 1.10, 3, []int{3}},
	{66, "Dy", "Dysprosium", 162.50, 1.22, 3, []int{3}},
	{67, "Ho", "Holmium", 164.93, 1.23, 3, []int{3}},
	{68, "Er", "Erbium", 167.26, 1.24, 3, []int{3}},
	{69, "Tm", "Thulium", 168.93, 1.25, 3, []int{3}},
	{70, "Yb", "Ytterbium", 173.05, 1.10, 3, []int{3}},
	{71, "Lu", "Lutetium", 174.97, 1.27, 3, []int{3}},
	{72, "Hf", "Hafnium", 178.49, 1.30, 4, []int{4}},
	{73, "Ta", "Tantalum", 180.95, 1.50, 5, []int{5}},
	{74, "W", "Tungsten", 183.84, 2.36, 6, []int{4, 6}},
	{75, "Re", "Rhenium", 186.21, 1.90, 7, []int{4}},
	{76, "Os", "Osmium", 190.23, 2.20, 8, []int{4}},
	{77, "Ir", "Iridium", 192.22, 2.20, 9, []int{3, 4}},
	{78, "Pt", "Platinum", 195.08, 2.28, 10, []int{2, 4}},
	{79, "Au", "Gold", 196.97, 2.54, 11, []int{3}},
	{80, "Hg", "Mercury", 200.59, 2.00, 12, []int{1, 2}},
	{81, "Tl", "Thallium", 204.38, 1.62, 13, []int{1, 3}},
	{82, "Pb", "Lead", 207.2, 2.33, 14, []int{2, 4}},
	{83, "Bi", "Bismuth", 208.98, 2.02, 15, []int{3}},
	{84, "Po", "Polonium", 209, 2.00, 16, []int{-2, 2, 4}},
	{85, "At", "Astatine", 210, 2.20, 17, []int{-1, 1}},
	{86, "Rn", "Radon", 222, 2.20, 18, []int{2}},
	{87, "Fr", "Francium", 223, 0.70, 1, []int{1}},
	{88, "Ra", "Radium", 226, 0.90, 2, []int{2}},
	{89, "Ac", "Actinium", 227, 1.10, 3, []int{3}},
	{90, "Th", "Thorium", 232.04, 1.30, 3, []int{4}},
	{91, "Pa", "Protactinium", 231.04, 1.50, 3, []int{5}},
	{92, "U", "Uranium", 238.03, 1.38, 3, []int{6}},
	{93, "Np", "Neptunium", 237, 1.36, 3, []int{5}},
	{94, "Pu", "Plutonium", 244, 1.28, 3, []int{4}},
}

var bySymbol = func() map[string]*Element {
	m := make(map[string]*Element, len(elements))
	for i := range elements {
		m[elements[i].Symbol] = &elements[i]
	}
	return m
}()

// Lookup returns the element with the given symbol.
func Lookup(symbol string) (Element, bool) {
	e, ok := bySymbol[symbol]
	if !ok {
		return Element{}, false
	}
	return *e, true
}

// ByNumber returns the element with atomic number z.
func ByNumber(z int) (Element, bool) {
	if z < 1 || z > len(elements) {
		return Element{}, false
	}
	return elements[z-1], true
}

// Symbols returns every known symbol ordered by atomic number.
func Symbols() []string {
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = e.Symbol
	}
	return out
}
