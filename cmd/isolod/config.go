package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/soypat/isolod/tetra"
	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/spatial/r3"
)

// fileConfig is the TOML layout of --config files. Keys not set in the file
// keep their defaults, flags set on the command line win over the file.
type fileConfig struct {
	Field string  `toml:"field"`
	Seed  int64   `toml:"seed"`
	Time  float64 `toml:"time"`

	Resolution      int     `toml:"resolution"`
	DepthCap        int     `toml:"depth_cap"`
	SubResolution   int     `toml:"sub_resolution"`
	PEM             bool    `toml:"pem"`
	SnapThreshold   float64 `toml:"snap_threshold"`
	Viewer          vec3    `toml:"viewer"`
	DiamondCapacity int     `toml:"diamond_capacity"`
	Retain          bool    `toml:"retain"`
	Verbose         bool    `toml:"verbose"`

	Output outputConfig `toml:"output"`
}

type outputConfig struct {
	STL  string `toml:"stl"`
	PNG  string `toml:"png"`
	Plot string `toml:"plot"`
}

func defaultFileConfig() fileConfig {
	def := tetra.DefaultConfig()
	return fileConfig{
		Field:         "sphere",
		Seed:          1,
		Resolution:    def.Resolution,
		SubResolution: def.SubResolution,
		SnapThreshold: def.SnapThreshold,
		Viewer:        vec3{def.InitialViewer.X, def.InitialViewer.Y, def.InitialViewer.Z},
	}
}

// bindFlags registers the hierarchy flags on fs using the current values
// of c as defaults.
func (c *fileConfig) bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Field, "field", c.Field, "sample field name, see the fields command")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "noise seed of noisy fields")
	fs.Float64Var(&c.Time, "time", c.Time, "field time parameter")
	fs.IntVar(&c.Resolution, "res", c.Resolution, "root cube side is 2^res")
	fs.IntVar(&c.DepthCap, "depth-cap", c.DepthCap, "resolution used to cap refinement depth, 0 uses res")
	fs.IntVar(&c.SubResolution, "sub", c.SubResolution, "marching cubes cells per hexahedron side, 2^k-1")
	fs.BoolVar(&c.PEM, "pem", c.PEM, "primal extraction mode")
	fs.Float64Var(&c.SnapThreshold, "snap", c.SnapThreshold, "PEM snap threshold in [0, 0.71]")
	fs.Var(&c.Viewer, "viewer", "viewer position x,y,z driving refinement")
	fs.IntVar(&c.DiamondCapacity, "diamond-capacity", c.DiamondCapacity, "panic when a diamond grows past this size, 0 is unbounded")
	fs.BoolVar(&c.Retain, "retain", c.Retain, "keep a marching cubes grid per hexahedron")
	fs.BoolVar(&c.Verbose, "verbose", c.Verbose, "log every extracted leaf at debug level")
}

func (c *fileConfig) bindOutputFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Output.STL, "stl", c.Output.STL, "write the extracted mesh to this binary STL file")
	fs.StringVar(&c.Output.PNG, "png", c.Output.PNG, "write a shaded preview of the mesh to this PNG file")
	fs.StringVar(&c.Output.Plot, "plot", c.Output.Plot, "write a leaves per level bar chart to this PNG file")
}

// loadConfig decodes the TOML file at path into c. Flags already set on fs
// are applied again afterwards so they take precedence over the file.
func loadConfig(path string, fs *pflag.FlagSet, c *fileConfig) error {
	if path == "" {
		return nil
	}
	set := make(map[string]string)
	fs.Visit(func(f *pflag.Flag) {
		set[f.Name] = f.Value.String()
	})
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config %s: unknown keys %v", path, undecoded)
	}
	for name, value := range set {
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("flag %s: %w", name, err)
		}
	}
	return nil
}

func (c *fileConfig) tetraConfig(log logrus.FieldLogger) tetra.Config {
	return tetra.Config{
		Resolution:      c.Resolution,
		MaxDepthCap:     c.DepthCap,
		SubResolution:   c.SubResolution,
		PEM:             c.PEM,
		SnapThreshold:   c.SnapThreshold,
		InitialViewer:   c.Viewer.Vec(),
		DiamondCapacity: c.DiamondCapacity,
		RetainChunks:    c.Retain,
		Time:            c.Time,
		Logger:          log,
		Verbose:         c.Verbose,
	}
}

var errBadVec = errors.New("want three comma separated numbers")

// vec3 is a point given as x,y,z on the command line or as a three
// element array in TOML.
type vec3 [3]float64

func (v *vec3) String() string {
	return strings.Join([]string{
		strconv.FormatFloat(v[0], 'g', -1, 64),
		strconv.FormatFloat(v[1], 'g', -1, 64),
		strconv.FormatFloat(v[2], 'g', -1, 64),
	}, ",")
}

func (v *vec3) Set(s string) error {
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return errBadVec
	}
	var got vec3
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadVec, err)
		}
		got[i] = x
	}
	*v = got
	return nil
}

func (v *vec3) Type() string { return "x,y,z" }

func (v vec3) Vec() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }
