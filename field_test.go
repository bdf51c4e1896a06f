package isolod_test

import (
	"math"
	"testing"

	sdfx "github.com/deadsy/sdfx/sdf"
	"github.com/soypat/isolod"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestGradientSphere(t *testing.T) {
	f := isolod.Sphere(2)
	p := r3.Vec{X: 1, Y: -0.5, Z: 0.25}
	got := isolod.Gradient(f, p, 0, isolod.GradientStep)
	// Central differences are exact for quadratics.
	want := r3.Scale(2, p)
	if r3.Norm(r3.Sub(got, want)) > 1e-9 {
		t.Errorf("gradient: got %v, want %v", got, want)
	}
}

func TestIntersectSymmetric(t *testing.T) {
	p0 := r3.Vec{X: 0.3, Y: 1.0 / 3, Z: -7}
	p1 := r3.Vec{X: 0.7, Y: 2.0 / 3, Z: -6.1}
	v0, v1 := -0.123456789, 0.987654321
	a := isolod.Intersect(p0, p1, v0, v1)
	b := isolod.Intersect(p1, p0, v1, v0)
	if a != b {
		t.Fatalf("intersection depends on endpoint order: %v != %v", a, b)
	}
	mu := -v0 / (v1 - v0)
	want := r3.Add(p0, r3.Scale(mu, r3.Sub(p1, p0)))
	if r3.Norm(r3.Sub(a, want)) > 1e-12 {
		t.Errorf("got %v, want %v", a, want)
	}
}

func TestSamples(t *testing.T) {
	for _, name := range isolod.SampleNames() {
		f, err := isolod.Sample(name, 1)
		if err != nil {
			t.Fatal(err)
		}
		v := f.Evaluate(r3.Vec{X: 1, Y: 2, Z: 3}, 0.5)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s: bad field value %v", name, v)
		}
	}
	if _, err := isolod.Sample("no-such-field", 0); err == nil {
		t.Error("expected error for unknown sample")
	}
}

func TestSphereTime(t *testing.T) {
	f := isolod.SphereDistance(1)
	// Moving time by 1 shifts the sphere to x=-1.
	if v := f.Evaluate(r3.Vec{X: -1}, 1); math.Abs(v+1) > 1e-12 {
		t.Errorf("want -1 at shifted center, got %v", v)
	}
}

func TestTerrainNoiseDeterministic(t *testing.T) {
	a := isolod.Terrain3D(isolod.NewNoise(7), 0.025, 128)
	b := isolod.Terrain3D(isolod.NewNoise(7), 0.025, 128)
	p := r3.Vec{X: 12.5, Y: -3, Z: 40}
	if a.Evaluate(p, 0.1) != b.Evaluate(p, 0.1) {
		t.Error("same seed produced different fields")
	}
}

func TestFromSDFX(t *testing.T) {
	s, err := sdfx.Sphere3D(2)
	if err != nil {
		t.Fatal(err)
	}
	f := isolod.FromSDFX(s)
	if v := f.Evaluate(r3.Vec{X: 3}, 0); math.Abs(v-1) > 1e-9 {
		t.Errorf("want distance 1 outside sphere, got %v", v)
	}
	bb := f.Bounds()
	if bb.Max.X < 2 || bb.Min.X > -2 {
		t.Errorf("bounds do not enclose sphere: %+v", bb)
	}
}
