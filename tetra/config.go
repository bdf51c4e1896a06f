package tetra

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/soypat/isolod/umc"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// MaxResolution bounds Config.Resolution.
	MaxResolution = 20
	// nodeBlockSize is the number of nodes allocated at once.
	nodeBlockSize = 512
	// leafWalkCap stops leaf list walks on corrupted links.
	leafWalkCap = 1_000_000
	// topLevelCount is the number of tetrahedra tiling the root cube.
	topLevelCount = 6
)

var (
	ErrBadResolution   = fmt.Errorf("resolution must be within [0, %d]", MaxResolution)
	ErrBadDepthCap     = errors.New("depth cap must not be negative")
	ErrBadCapacity     = fmt.Errorf("diamond capacity must be 0 or at least %d", topLevelCount)
	ErrNilField        = errors.New("nil field")
	ErrLeafListCorrupt = errors.New("leaf list corrupt")
)

// Config holds the tunable parameters of a Hierarchy.
type Config struct {
	// Resolution sets the root cube side to 1<<Resolution, centered on the origin.
	Resolution int
	// MaxDepthCap limits refinement to levels below 2*MaxDepthCap+4.
	// Zero means Resolution.
	MaxDepthCap int
	// SubResolution is the number of marching cubes cells along each side of
	// a leaf's hexahedra. Must be of the form 2^k-1.
	SubResolution int
	// PEM enables primal extraction mode in the marching cubes engine.
	PEM           bool
	SnapThreshold float64
	// InitialViewer drives the split pass performed by New.
	InitialViewer r3.Vec
	// DiamondCapacity, if positive, is the most tetrahedra a diamond may hold
	// before the hierarchy panics. Zero lets diamonds grow freely.
	DiamondCapacity int
	// RetainChunks keeps a marching cubes grid per hexahedron between
	// extractions. Otherwise leaves share one scratch grid.
	RetainChunks bool
	// Time is the initial field time parameter.
	Time float64
	// Logger receives progress reports. Nil discards them.
	Logger logrus.FieldLogger
	// Verbose logs a debug line per extracted leaf.
	Verbose bool
}

// DefaultConfig returns the configuration of a 256 unit wide world viewed
// from the middle of its top face.
func DefaultConfig() Config {
	p := umc.DefaultParams()
	return Config{
		Resolution:    8,
		SubResolution: p.Dim,
		SnapThreshold: p.SnapThreshold,
		InitialViewer: r3.Vec{Y: 128},
	}
}

func (c Config) Validate() error {
	if c.Resolution < 0 || c.Resolution > MaxResolution {
		return ErrBadResolution
	}
	if c.MaxDepthCap < 0 {
		return ErrBadDepthCap
	}
	if c.DiamondCapacity != 0 && c.DiamondCapacity < topLevelCount {
		return ErrBadCapacity
	}
	if err := c.chunkParams().Validate(); err != nil {
		return fmt.Errorf("sub resolution: %w", err)
	}
	return nil
}

func (c Config) depthCap() int {
	if c.MaxDepthCap == 0 {
		return c.Resolution
	}
	return c.MaxDepthCap
}

func (c Config) chunkParams() umc.Params {
	return umc.Params{Dim: c.SubResolution, PEM: c.PEM, SnapThreshold: c.SnapThreshold}
}

func (c Config) logger() logrus.FieldLogger {
	if c.Logger != nil {
		return c.Logger
	}
	l := logrus.New()
	l.Out = io.Discard
	return l
}
