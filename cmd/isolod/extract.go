package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/soypat/isolod"
	"github.com/soypat/isolod/render"
	"github.com/soypat/isolod/tetra"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

func newExtractCmd(log *logrus.Logger, configPath *string) *cobra.Command {
	cfg := defaultFileConfig()
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Refine a hierarchy around the viewer and extract the surface of every leaf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(*configPath, cmd.Flags(), &cfg); err != nil {
				return err
			}
			return runExtract(log, &cfg)
		},
	}
	cfg.bindFlags(cmd.Flags())
	cfg.bindOutputFlags(cmd.Flags())
	return cmd
}

func runExtract(log logrus.FieldLogger, cfg *fileConfig) (err error) {
	field, err := isolod.Sample(cfg.Field, cfg.Seed)
	if err != nil {
		return err
	}
	h, err := tetra.New(field, cfg.tetraConfig(log))
	if err != nil {
		return err
	}
	defer func() {
		if derr := h.Destroy(); derr != nil && err == nil {
			err = derr
		}
	}()
	st := h.Stats()
	entry := log.WithFields(logrus.Fields{
		"field":     cfg.Field,
		"nodes":     h.NodeCount(),
		"diamonds":  h.DiamondCount(),
		"max_depth": h.MaxDepth(),
		"vertices":  st.Vertices,
		"triangles": st.Primitives,
	})
	if b, ok := h.MeshBounds(); ok {
		entry = entry.WithField("bounds", fmt.Sprintf("%.4g..%.4g", b.Min, b.Max))
	}
	entry.Info("hierarchy ready")

	if cfg.Output.STL != "" {
		if err := render.CreateSTL(cfg.Output.STL, render.NewHierarchyReader(h)); err != nil {
			return fmt.Errorf("write stl: %w", err)
		}
		log.WithField("path", cfg.Output.STL).Info("wrote stl")
	}
	if cfg.Output.PNG != "" {
		model, err := render.RenderAll(render.NewHierarchyReader(h))
		if err != nil {
			return err
		}
		if err := writeFile(cfg.Output.PNG, func(f *os.File) error {
			return render.PreviewPNG(f, model, render.DefaultPreviewConfig())
		}); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
		log.WithField("path", cfg.Output.PNG).Info("wrote preview")
	}
	if cfg.Output.Plot != "" {
		if err := writeFile(cfg.Output.Plot, func(f *os.File) error {
			return render.PlotLevels(f, h.LevelHistogram(), 6*vg.Inch, 4*vg.Inch)
		}); err != nil {
			return fmt.Errorf("write plot: %w", err)
		}
		log.WithField("path", cfg.Output.Plot).Info("wrote level plot")
	}
	return nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
