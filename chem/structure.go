package chem

import (
	"encoding/json"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matpipe/matpipe/pkg/errors"
)

// amuPerA3ToGPerCm3 converts a density in amu/Å³ to g/cm³.
const amuPerA3ToGPerCm3 = 1.66053906660

// minVolume is the smallest cell volume (Å³) accepted as non-degenerate.
const minVolume = 1e-8

// Occupancy is the fraction of a site held by one element.
type Occupancy struct {
	Element string
	Occu    float64
}

// Site is a lattice site in fractional coordinates.
type Site struct {
	Species []Occupancy
	Frac    [3]float64
}

// Structure is a periodic crystal: three lattice vectors (rows, Å) and sites.
type Structure struct {
	Lattice *mat.Dense
	Sites   []Site
}

// NewStructure validates and builds a structure.
func NewStructure(lattice [3][3]float64, sites []Site) (*Structure, error) {
	lat := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			lat.Set(i, j, lattice[i][j])
		}
	}
	s := &Structure{Lattice: lat, Sites: sites}
	if err := errors.CheckMatrix("NewStructure", lat); err != nil {
		return nil, err
	}
	if s.Volume() < minVolume {
		return nil, errors.NewValueError("NewStructure", "lattice vectors are degenerate")
	}
	if len(sites) == 0 {
		return nil, errors.NewValueError("NewStructure", "structure has no sites")
	}
	for i, site := range sites {
		if len(site.Species) == 0 {
			return nil, errors.NewValueError("NewStructure", "site "+strconv.Itoa(i)+" has no species")
		}
		for _, o := range site.Species {
			if _, ok := bySymbol[o.Element]; !ok {
				return nil, errors.NewParseError(o.Element, -1, "unknown element")
			}
			if !(o.Occu > 0) {
				return nil, errors.NewValidationError("occu", "occupancy must be positive", o.Occu)
			}
		}
	}
	return s, nil
}

// Volume returns the cell volume in Å³ as the triple product a·(b×c).
func (s *Structure) Volume() float64 {
	a, b, c := s.vector(0), s.vector(1), s.vector(2)
	return math.Abs(r3.Dot(a, r3.Cross(b, c)))
}

func (s *Structure) vector(i int) r3.Vec {
	return r3.Vec{X: s.Lattice.At(i, 0), Y: s.Lattice.At(i, 1), Z: s.Lattice.At(i, 2)}
}

// NumSites returns the number of sites in the cell.
func (s *Structure) NumSites() int {
	return len(s.Sites)
}

// Composition sums site occupancies over the cell.
func (s *Structure) Composition() Composition {
	b := newBuilder()
	for _, site := range s.Sites {
		for _, o := range site.Species {
			b.add(o.Element, o.Occu)
		}
	}
	return b.build()
}

// Density returns the density in g/cm³.
func (s *Structure) Density() float64 {
	return s.Composition().Weight() / s.Volume() * amuPerA3ToGPerCm3
}

// VolumePerAtom returns the cell volume divided by the number of atoms.
func (s *Structure) VolumePerAtom() float64 {
	return s.Volume() / s.Composition().NumAtoms()
}

type structureDoc struct {
	Class   string `json:"@class"`
	Lattice struct {
		Matrix [][]float64 `json:"matrix"`
	} `json:"lattice"`
	Sites []struct {
		Species []struct {
			Element string  `json:"element"`
			Occu    float64 `json:"occu"`
		} `json:"species"`
		ABC []float64 `json:"abc"`
	} `json:"sites"`
}

// DecodeStructure decodes the pymatgen-style structure dictionary used by the
// dataset file.
func DecodeStructure(raw []byte) (*Structure, error) {
	var doc structureDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "decode structure")
	}
	if doc.Class != "" && doc.Class != "Structure" {
		return nil, errors.NewParseError(doc.Class, -1, "not a Structure record")
	}
	var lattice [3][3]float64
	if len(doc.Lattice.Matrix) != 3 {
		return nil, errors.NewDimensionError("DecodeStructure", 3, len(doc.Lattice.Matrix), 0)
	}
	for i, row := range doc.Lattice.Matrix {
		if len(row) != 3 {
			return nil, errors.NewDimensionError("DecodeStructure", 3, len(row), 1)
		}
		copy(lattice[i][:], row)
	}
	sites := make([]Site, len(doc.Sites))
	for i, ds := range doc.Sites {
		if len(ds.ABC) != 3 {
			return nil, errors.NewDimensionError("DecodeStructure", 3, len(ds.ABC), 1)
		}
		copy(sites[i].Frac[:], ds.ABC)
		for _, sp := range ds.Species {
			sites[i].Species = append(sites[i].Species, Occupancy{Element: sp.Element, Occu: sp.Occu})
		}
	}
	return NewStructure(lattice, sites)
}

// MarshalJSON encodes the structure in the same dictionary layout DecodeStructure reads.
func (s *Structure) MarshalJSON() ([]byte, error) {
	type species struct {
		Element string  `json:"element"`
		Occu    float64 `json:"occu"`
	}
	type site struct {
		Species []species  `json:"species"`
		ABC     [3]float64 `json:"abc"`
	}
	doc := struct {
		Class   string `json:"@class"`
		Lattice struct {
			Matrix [3][3]float64 `json:"matrix"`
		} `json:"lattice"`
		Sites []site `json:"sites"`
	}{Class: "Structure"}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			doc.Lattice.Matrix[i][j] = s.Lattice.At(i, j)
		}
	}
	for _, st := range s.Sites {
		out := site{ABC: st.Frac}
		for _, o := range st.Species {
			out.Species = append(out.Species, species(o))
		}
		doc.Sites = append(doc.Sites, out)
	}
	return json.Marshal(doc)
}
