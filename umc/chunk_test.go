package umc_test

import (
	"math"
	"testing"

	"github.com/soypat/isolod"
	"github.com/soypat/isolod/umc"
	"gonum.org/v1/gonum/spatial/r3"
)

func cubeCorners(half float64) *[8]r3.Vec {
	var c [8]r3.Vec
	for i := range c {
		c[i] = r3.Vec{X: -half, Y: -half, Z: -half}
		if i&1 != 0 {
			c[i].X = half
		}
		if i&2 != 0 {
			c[i].Y = half
		}
		if i&4 != 0 {
			c[i].Z = half
		}
	}
	return &c
}

func TestSphereRoundTrip(t *testing.T) {
	const r = 0.7
	f := isolod.Sphere(r)
	var (
		c   umc.Chunk
		out umc.Buffers
	)
	p := umc.Params{Dim: 15}
	st := c.Run(f, cubeCorners(1), 0, p, &out)
	if st.Vertices == 0 || st.Vertices != out.VertexCount() {
		t.Fatalf("bad vertex count %d (buffer has %d)", st.Vertices, out.VertexCount())
	}
	if len(out.Indices)%3 != 0 || st.Primitives != out.PrimitiveCount() {
		t.Fatalf("bad index buffer length %d", len(out.Indices))
	}
	// Closed genus zero surface: F = 2V - 4.
	if st.Primitives != 2*st.Vertices-4 {
		t.Errorf("want %d triangles for %d vertices, got %d", 2*st.Vertices-4, st.Vertices, st.Primitives)
	}
	// Linear interpolation of a quadratic over an edge of length h is off by at most h²/4.
	h := 2.0 / 15
	for i, v := range out.Positions {
		if d := math.Abs(f.Evaluate(v, 0)); d > h*h/4+1e-12 {
			t.Fatalf("vertex %d %v off surface by %g", i, v, d)
		}
		if r3.Dot(out.Normals[i], v) <= 0 {
			t.Fatalf("vertex %d normal %v points inward", i, out.Normals[i])
		}
	}
	flipped := 0
	for i := 0; i < len(out.Indices); i += 3 {
		a, b, cc := out.Positions[out.Indices[i]], out.Positions[out.Indices[i+1]], out.Positions[out.Indices[i+2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(cc, a))
		area := r3.Norm(n)
		if area < 1e-9 {
			continue
		}
		centroid := r3.Scale(1.0/3, r3.Add(a, r3.Add(b, cc)))
		if r3.Dot(n, centroid)/(area*r3.Norm(centroid)) < -0.5 {
			flipped++
		}
	}
	if flipped != 0 {
		t.Errorf("%d triangles wound inward", flipped)
	}
}

func TestRunIdempotent(t *testing.T) {
	f := isolod.Torus(0.5, 0.2)
	var c umc.Chunk
	p := umc.DefaultParams()
	var a, b umc.Buffers
	sa := c.Run(f, cubeCorners(1), 0, p, &a)
	sb := c.Run(f, cubeCorners(1), 0, p, &b)
	if sa.Vertices != sb.Vertices || sa.Primitives != sb.Primitives {
		t.Fatalf("rerun changed output: %+v vs %+v", sa, sb)
	}
	for i := range a.Positions {
		if a.Positions[i] != b.Positions[i] {
			t.Fatalf("vertex %d differs between runs", i)
		}
	}
	for i := range a.Indices {
		if a.Indices[i] != b.Indices[i] {
			t.Fatalf("index %d differs between runs", i)
		}
	}
	// Appending to a used buffer offsets indices.
	sc := c.Run(f, cubeCorners(1), 0, p, &a)
	if a.VertexCount() != 2*sa.Vertices || sc.Primitives != sa.Primitives {
		t.Fatalf("append run: %d vertices in buffer, stats %+v", a.VertexCount(), sc)
	}
	for _, idx := range a.Indices[len(b.Indices):] {
		if int(idx) < sa.Vertices {
			t.Fatal("appended triangles reference earlier vertices")
		}
	}
}

func TestEmptyChunk(t *testing.T) {
	f := isolod.SphereDistance(0.1)
	var (
		c   umc.Chunk
		out umc.Buffers
	)
	corners := cubeCorners(1)
	for i := range corners {
		corners[i] = r3.Add(corners[i], r3.Vec{X: 10})
	}
	st := c.Run(f, corners, 0, umc.DefaultParams(), &out)
	if st.Vertices != 0 || st.Primitives != 0 || st.Crossings != 0 {
		t.Errorf("expected empty output, got %+v", st)
	}
}

func TestNilCorners(t *testing.T) {
	f := isolod.SphereDistance(2.2)
	var (
		c   umc.Chunk
		out umc.Buffers
	)
	st := c.Run(f, nil, 0, umc.Params{Dim: 7}, &out)
	if st.Primitives == 0 {
		t.Fatal("no triangles extracted")
	}
	for _, v := range out.Positions {
		if math.Abs(r3.Norm(v)-2.2) > 0.5 {
			t.Fatalf("vertex %v far from sphere", v)
		}
	}
}

func TestSnapMonotonic(t *testing.T) {
	f := isolod.SphereDistance(0.63)
	var c umc.Chunk
	last := -1
	for _, thr := range []float64{0, 0.05, 0.1, 0.2, 0.3, 0.45, 0.6, umc.MaxSnapThreshold} {
		var out umc.Buffers
		st := c.Run(f, cubeCorners(1), 0, umc.Params{Dim: 15, PEM: true, SnapThreshold: thr}, &out)
		if st.Snapped < last {
			t.Fatalf("threshold %g snapped %d vertices, fewer than %d at a lower threshold", thr, st.Snapped, last)
		}
		last = st.Snapped
		for _, idx := range out.Indices {
			if int(idx) >= out.VertexCount() {
				t.Fatalf("index %d out of range", idx)
			}
		}
		for i := 0; i < len(out.Indices); i += 3 {
			a, b, cc := out.Indices[i], out.Indices[i+1], out.Indices[i+2]
			if a == b || b == cc || a == cc {
				t.Fatalf("degenerate triangle %d %d %d", a, b, cc)
			}
		}
	}
	if last == 0 {
		t.Error("no vertex snapped at the maximum threshold")
	}
}

func TestPEMSurfaceVertices(t *testing.T) {
	// Grid vertices with integer coordinates land exactly on the plane.
	f := isolod.Plane(0.5)
	var (
		c   umc.Chunk
		out umc.Buffers
	)
	st := c.Run(f, nil, 0, umc.Params{Dim: 7, PEM: true}, &out)
	if st.Crossings != 0 {
		t.Errorf("want no edge crossings for a plane through grid vertices, got %d", st.Crossings)
	}
	if st.Primitives == 0 {
		t.Fatal("no triangles on grid plane")
	}
	for _, v := range out.Positions {
		if v.Z != 0.5 {
			t.Fatalf("vertex %v not on plane z=0.5", v)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	for _, dim := range []int{1, 3, 7, 15, 31} {
		if err := (umc.Params{Dim: dim}).Validate(); err != nil {
			t.Errorf("dim %d: %v", dim, err)
		}
	}
	for _, dim := range []int{0, 2, 6, 8, -1} {
		if err := (umc.Params{Dim: dim}).Validate(); err == nil {
			t.Errorf("dim %d accepted", dim)
		}
	}
	if err := (umc.Params{Dim: 7, SnapThreshold: 0.8}).Validate(); err == nil {
		t.Error("snap threshold above maximum accepted")
	}
}

func BenchmarkChunkRun(b *testing.B) {
	f := isolod.Sphere(0.7)
	var (
		c   umc.Chunk
		out umc.Buffers
	)
	corners := cubeCorners(1)
	p := umc.DefaultParams()
	for i := 0; i < b.N; i++ {
		out.Reset()
		c.Run(f, corners, 0, p, &out)
	}
}
