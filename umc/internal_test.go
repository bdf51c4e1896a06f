package umc

import (
	"testing"
)

func TestMarchingCubesTable(t *testing.T) {
	maxTris := 0
	for mask := 0; mask < 256; mask++ {
		ntri := 0
		for entry := mcTable[mask]; entry&0xF != 0xF; entry >>= 12 {
			for k := 0; k < 3; k++ {
				e := entry >> (4 * k) & 0xF
				if e >= 12 {
					t.Fatalf("case %#x: bad edge %d", mask, e)
				}
				a, b := edgeCorners[e][0], edgeCorners[e][1]
				if (mask>>a)&1 == (mask>>b)&1 {
					t.Errorf("case %#x: triangle uses edge %d which the surface does not cross", mask, e)
				}
			}
			ntri++
		}
		if mask == 0 || mask == 255 {
			if ntri != 0 {
				t.Errorf("case %#x: want no triangles, got %d", mask, ntri)
			}
		}
		if maxTris < ntri {
			maxTris = ntri
		}
	}
	if maxTris != maxCellTriangles {
		t.Errorf("want max %d triangles per case, got %d", maxCellTriangles, maxTris)
	}
	for c := 0; c < 8; c++ {
		if got := trianglesIn(mcTable[1<<c]); got != 1 {
			t.Errorf("single inside corner %d: want 1 triangle, got %d", c, got)
		}
		if got := trianglesIn(mcTable[255&^(1<<c)]); got != 1 {
			t.Errorf("single outside corner %d: want 1 triangle, got %d", c, got)
		}
	}
}

func trianglesIn(entry uint64) (n int) {
	for ; entry&0xF != 0xF; entry >>= 12 {
		n++
	}
	return n
}

// Without corners lying on the surface the PEM table must reproduce the
// standard table with edge slots.
func TestPEMTableMatchesStandard(t *testing.T) {
	for mask := 0; mask < 256; mask++ {
		code, pow := 0, 1
		for c := 0; c < 8; c++ {
			cl := classPositive
			if mask&(1<<c) != 0 {
				cl = classNegative
			}
			code += int(cl) * pow
			pow *= 3
		}
		entry := pemTable[code]
		std := mcTable[mask]
		if int(entry[0]) != trianglesIn(std) {
			t.Fatalf("case %#x: PEM has %d triangles, standard has %d", mask, entry[0], trianglesIn(std))
		}
		for i := 0; i < 3*int(entry[0]); i++ {
			want := uint8(std>>(4*i)&0xF) + pemCornerSlots
			if entry[1+i] != want {
				t.Fatalf("case %#x slot %d: got %d, want %d", mask, i, entry[1+i], want)
			}
		}
	}
}

func TestPEMTableSurfaceCorner(t *testing.T) {
	// Corner 0 negative, corner 1 on the surface, rest positive: the
	// crossing on edge 0-1 collapses onto corner slot 1.
	code, pow := 0, 1
	for c := 0; c < 8; c++ {
		cl := classPositive
		switch c {
		case 0:
			cl = classNegative
		case 1:
			cl = classZero
		}
		code += int(cl) * pow
		pow *= 3
	}
	entry := pemTable[code]
	if entry[0] != 1 {
		t.Fatalf("want a single triangle, got %d", entry[0])
	}
	var sawCorner bool
	for _, s := range entry[1:4] {
		if s == 1 {
			sawCorner = true
		} else if s < pemCornerSlots {
			t.Errorf("unexpected corner slot %d", s)
		}
	}
	if !sawCorner {
		t.Errorf("triangle %v does not use corner slot 1", entry[1:4])
	}
	allZero := 0
	for c, pow := 0, 1; c < 8; c, pow = c+1, pow*3 {
		allZero += int(classZero) * pow
	}
	if pemTable[allZero][0] != 0 {
		t.Error("cell with every corner on the surface should emit nothing")
	}
}

func TestSignPacking(t *testing.T) {
	for _, pem := range []bool{false, true} {
		var c Chunk
		c.reset(7, pem)
		codes := []uint8{0, 1}
		if pem {
			codes = []uint8{classNegative, classZero, classPositive}
		}
		k := 0
		for x := 0; x <= 7; x++ {
			for y := 0; y <= 7; y++ {
				for z := 0; z <= 7; z++ {
					c.setCode(x, y, z, codes[k%len(codes)])
					k++
				}
			}
		}
		k = 0
		for x := 0; x <= 7; x++ {
			for y := 0; y <= 7; y++ {
				for z := 0; z <= 7; z++ {
					if got := c.code(x, y, z); got != codes[k%len(codes)] {
						t.Fatalf("pem=%v (%d,%d,%d): got code %d want %d", pem, x, y, z, got, codes[k%len(codes)])
					}
					k++
				}
			}
		}
	}
}
