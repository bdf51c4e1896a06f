package isolod

import (
	"fmt"
	"sort"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"
)

// Noise is a coherent noise source. Fields only read from it.
type Noise = opensimplex.Noise

// NewNoise returns seeded OpenSimplex noise.
func NewNoise(seed int64) Noise { return opensimplex.New(seed) }

// Terrain2D is a height field: the ground is the surface y = amp*noise(x,z).
// Time scrolls the terrain along X.
func Terrain2D(n Noise, freq, amp float64) Field {
	return FieldFunc(func(p r3.Vec, t float64) float64 {
		return p.Y - amp*n.Eval2(p.X*freq+t, p.Z*freq)
	})
}

// Terrain3D is a volumetric terrain that allows overhangs and caves.
func Terrain3D(n Noise, freq, amp float64) Field {
	return FieldFunc(func(p r3.Vec, t float64) float64 {
		return p.Y - amp*n.Eval3(p.X*freq+t, p.Y*freq, p.Z*freq)
	})
}

// Roughen displaces the surface of f by noise of the given frequency and
// amplitude. Time is the fourth noise dimension, so the surface boils in
// place instead of translating.
func Roughen(f Field, n Noise, freq, amp float64) Field {
	return FieldFunc(func(p r3.Vec, t float64) float64 {
		return f.Evaluate(p, 0) + amp*n.Eval4(p.X*freq, p.Y*freq, p.Z*freq, t)
	})
}

// samples are tuned for a world of side WorldSize centered at the origin.
var samples = map[string]func(n Noise) Field{
	"sphere":          func(Noise) Field { return Sphere(0.45 * WorldSize) },
	"sphere-distance": func(Noise) Field { return SphereDistance(0.45 * WorldSize) },
	"sliced-sphere":   func(Noise) Field { return SlicedSphere(0.45 * WorldSize) },
	"torus":           func(Noise) Field { return Torus(WorldSize/4.0, WorldSize/10.0) },
	"plane":           func(Noise) Field { return Plane(0.01) },
	"klein":           func(Noise) Field { return Klein(8.0 / WorldSize) },
	"terrain2d":       func(n Noise) Field { return Terrain2D(n, 0.025, WorldSize/4) },
	"terrain3d":       func(n Noise) Field { return Terrain3D(n, 0.025, WorldSize/2) },
	"noisy-sphere": func(n Noise) Field {
		return Roughen(SphereDistance(0.4*WorldSize), n, 0.025, 0.15*WorldSize/4)
	},
	"noisy-torus": func(n Noise) Field {
		return Roughen(Torus(WorldSize/4.0, WorldSize/10.0), n, 0.05, 0.15*WorldSize/10.0)
	},
}

// Sample returns the named sample field. Noise based samples use seed.
func Sample(name string, seed int64) (Field, error) {
	mk, ok := samples[name]
	if !ok {
		return nil, fmt.Errorf("unknown sample field %q, want one of %v", name, SampleNames())
	}
	return mk(NewNoise(seed)), nil
}

// SampleNames lists the names accepted by Sample in lexical order.
func SampleNames() []string {
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
