package render

import (
	"errors"
	"image/png"
	"io"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/glgl/math/ms3"
	"gonum.org/v1/gonum/spatial/r3"
)

// PreviewConfig sets up the camera and raster of PreviewPNG. The model is
// scaled to fit a bi-unit cube centered at the origin before rendering.
type PreviewConfig struct {
	Width, Height int
	// Scale supersamples the raster, which is then downsampled for antialiasing.
	Scale int
	// where the camera is located (point)
	Eye r3.Vec
	// what position (point) to look at
	LookAt r3.Vec
	// which way is up (direction)
	Up r3.Vec
	// vertical field of view in degrees
	FovY      float64
	Near, Far float64
	// Hex colors.
	Color, Background string
}

// DefaultPreviewConfig returns an 800x600 view from the (1,1,1) diagonal.
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Width:      800,
		Height:     600,
		Scale:      2,
		Eye:        r3.Vec{X: 3, Y: 3, Z: 3},
		Up:         r3.Vec{Z: 1},
		FovY:       30,
		Near:       1,
		Far:        10,
		Color:      "#468966",
		Background: "#FFF8E3",
	}
}

// PreviewPNG renders model with Phong shading and writes it to w as PNG.
func PreviewPNG(w io.Writer, model []ms3.Triangle, cfg PreviewConfig) error {
	if len(model) == 0 {
		return errors.New("empty triangle slice")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.New("preview dimensions must be positive")
	}
	if cfg.Scale < 1 {
		cfg.Scale = 1
	}
	tris := make([]*fauxgl.Triangle, len(model))
	for i, t := range model {
		tris[i] = fauxgl.NewTriangleForPoints(fauxV(t[0]), fauxV(t[1]), fauxV(t[2]))
	}
	mesh := fauxgl.NewTriangleMesh(tris)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()
	var (
		eye    = fauxgl.V(cfg.Eye.X, cfg.Eye.Y, cfg.Eye.Z)
		center = fauxgl.V(cfg.LookAt.X, cfg.LookAt.Y, cfg.LookAt.Z)
		up     = fauxgl.V(cfg.Up.X, cfg.Up.Y, cfg.Up.Z)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
	)
	context := fauxgl.NewContext(cfg.Width*cfg.Scale, cfg.Height*cfg.Scale)
	context.ClearColorBufferWith(fauxgl.HexColor(cfg.Background))
	aspect := float64(cfg.Width) / float64(cfg.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(cfg.FovY, aspect, cfg.Near, cfg.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = fauxgl.HexColor(cfg.Color)
	context.Shader = shader
	context.DrawMesh(mesh)
	// downsample image for antialiasing
	img := context.Image()
	img = resize.Resize(uint(cfg.Width), uint(cfg.Height), img, resize.Bilinear)
	return png.Encode(w, img)
}

func fauxV(v ms3.Vec) fauxgl.Vector {
	return fauxgl.V(float64(v.X), float64(v.Y), float64(v.Z))
}
