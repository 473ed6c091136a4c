// Package structure holds the immutable crystal-structure input model:
// a periodic lattice plus an ordered list of atomic sites.
package structure

import (
	"errors"
	"fmt"
	"math"

	"github.com/crystalkit/chemenv/pkg/geom"
)

// ErrInvalidStructure indicates that a structural precondition is violated
// (singular lattice, no sites, non-finite coordinates).
var ErrInvalidStructure = errors.New("invalid structure")

// Site is one atomic position. Sites are created through NewStructure and
// are read-only afterwards.
type Site struct {
	species string
	frac    geom.Vec3
	cart    geom.Vec3
	index   int
}

// Species returns the species label, e.g. "Si" or "O".
func (s Site) Species() string { return s.species }

// Frac returns the fractional coordinates of the site.
func (s Site) Frac() geom.Vec3 { return s.frac }

// Cart returns the cartesian coordinates of the site.
func (s Site) Cart() geom.Vec3 { return s.cart }

// Index returns the position of the site within its structure.
func (s Site) Index() int { return s.index }

// Structure is an ordered sequence of sites on a periodic lattice.
// Structures are immutable once built.
type Structure struct {
	lattice Lattice
	sites   []Site
}

// NewStructure builds a structure from a lattice, species labels and
// fractional coordinates. Labels and coordinates must have equal length
// and at least one entry.
func NewStructure(lattice Lattice, species []string, fracs []geom.Vec3) (*Structure, error) {
	if len(species) == 0 {
		return nil, fmt.Errorf("%w: structure has no sites", ErrInvalidStructure)
	}
	if len(species) != len(fracs) {
		return nil, fmt.Errorf("%w: %d species for %d coordinates", ErrInvalidStructure, len(species), len(fracs))
	}
	if lattice.Volume() == 0 {
		return nil, fmt.Errorf("%w: degenerate lattice", ErrInvalidStructure)
	}

	st := &Structure{lattice: lattice, sites: make([]Site, len(species))}
	for i, sp := range species {
		f := fracs[i]
		if !finite(f) {
			return nil, fmt.Errorf("%w: non-finite coordinates at site %d", ErrInvalidStructure, i)
		}
		if sp == "" {
			return nil, fmt.Errorf("%w: empty species at site %d", ErrInvalidStructure, i)
		}
		st.sites[i] = Site{
			species: sp,
			frac:    f,
			cart:    lattice.Cartesian(f),
			index:   i,
		}
	}
	return st, nil
}

func finite(v geom.Vec3) bool {
	ok := func(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
	return ok(v.X) && ok(v.Y) && ok(v.Z)
}

// Lattice returns the periodic lattice.
func (s *Structure) Lattice() Lattice { return s.lattice }

// NumSites returns the number of sites.
func (s *Structure) NumSites() int { return len(s.sites) }

// Site returns the site at the given index.
func (s *Structure) Site(i int) Site { return s.sites[i] }

// Sites returns the ordered site list. Callers must not mutate it.
func (s *Structure) Sites() []Site { return s.sites }

// ImageOffset is an integral periodic translation (n·a + m·b + p·c).
type ImageOffset struct {
	N, M, P int
}

// IsZero reports whether the offset is the identity translation.
func (o ImageOffset) IsZero() bool { return o.N == 0 && o.M == 0 && o.P == 0 }

// Translation returns the cartesian translation vector of the offset.
func (s *Structure) Translation(o ImageOffset) geom.Vec3 {
	l := s.lattice
	return l.A().Scale(float64(o.N)).Add(l.B().Scale(float64(o.M))).Add(l.C().Scale(float64(o.P)))
}

// PeriodicImage holds a concrete periodic copy of a site.
type PeriodicImage struct {
	SiteIndex int
	Offset    ImageOffset
	Cart      geom.Vec3
}

// ImagesWithin returns every periodic image of every site whose cartesian
// position lies within radius of the given center, excluding the central
// site's own untranslated image. Results are deterministic: ordered by
// site index, then offset indices.
func (s *Structure) ImagesWithin(center Site, radius float64) []PeriodicImage {
	bounds := s.lattice.ImageBounds(radius)
	var images []PeriodicImage
	r2 := radius * radius
	for _, site := range s.sites {
		for n := -bounds[0]; n <= bounds[0]; n++ {
			for m := -bounds[1]; m <= bounds[1]; m++ {
				for p := -bounds[2]; p <= bounds[2]; p++ {
					off := ImageOffset{n, m, p}
					if site.index == center.index && off.IsZero() {
						continue
					}
					pos := site.cart.Add(s.Translation(off))
					if pos.Sub(center.cart).NormSq() <= r2 {
						images = append(images, PeriodicImage{
							SiteIndex: site.index,
							Offset:    off,
							Cart:      pos,
						})
					}
				}
			}
		}
	}
	return images
}
