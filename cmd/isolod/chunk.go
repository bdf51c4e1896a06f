package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/soypat/isolod"
	"github.com/soypat/isolod/internal/d3"
	"github.com/soypat/isolod/render"
	"github.com/soypat/isolod/umc"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
)

func newChunkCmd(log *logrus.Logger, configPath *string) *cobra.Command {
	cfg := defaultFileConfig()
	var size float64
	cmd := &cobra.Command{
		Use:   "chunk",
		Short: "Run marching cubes over a single chunk and print its statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(*configPath, cmd.Flags(), &cfg); err != nil {
				return err
			}
			st, mesh, err := runChunk(&cfg, size)
			if err != nil {
				return err
			}
			printChunkStats(cmd.OutOrStdout(), cfg.SubResolution, st)
			if cfg.Output.STL != "" && mesh.PrimitiveCount() > 0 {
				if err := render.CreateSTL(cfg.Output.STL, render.NewMeshReader(mesh)); err != nil {
					return fmt.Errorf("write stl: %w", err)
				}
				log.WithField("path", cfg.Output.STL).Info("wrote stl")
			}
			return nil
		},
	}
	cfg.bindFlags(cmd.Flags())
	cmd.Flags().StringVar(&cfg.Output.STL, "stl", "", "write the chunk mesh to this binary STL file")
	cmd.Flags().Float64Var(&size, "size", isolod.WorldSize, "side of the cube centered on the origin, 0 uses a unit spaced grid")
	return cmd
}

// runChunk extracts the chosen field over one chunk of cfg.SubResolution
// cells. The chunk spans a centered cube of side size, or a unit spaced grid
// when size is zero.
func runChunk(cfg *fileConfig, size float64) (umc.Stats, *umc.Buffers, error) {
	p := umc.Params{Dim: cfg.SubResolution, PEM: cfg.PEM, SnapThreshold: cfg.SnapThreshold}
	if err := p.Validate(); err != nil {
		return umc.Stats{}, nil, err
	}
	if size < 0 {
		return umc.Stats{}, nil, fmt.Errorf("negative chunk size %g", size)
	}
	field, err := isolod.Sample(cfg.Field, cfg.Seed)
	if err != nil {
		return umc.Stats{}, nil, err
	}
	var corners *[8]r3.Vec
	if size > 0 {
		box := d3.CenteredBox(r3.Vec{}, d3.Elem(size))
		corners = new([8]r3.Vec)
		for i := range corners {
			corners[i] = box.Corner(i)
		}
	}
	var (
		c   umc.Chunk
		out umc.Buffers
	)
	st := c.Run(field, corners, cfg.Time, p, &out)
	return st, &out, nil
}

func printChunkStats(w io.Writer, dim int, st umc.Stats) {
	fmt.Fprintf(w, "cells      %d^3\n", dim)
	fmt.Fprintf(w, "crossings  %d\n", st.Crossings)
	fmt.Fprintf(w, "vertices   %d\n", st.Vertices)
	fmt.Fprintf(w, "triangles  %d\n", st.Primitives)
	fmt.Fprintf(w, "snapped    %d\n", st.Snapped)
	fmt.Fprintf(w, "elapsed    %v\n", st.Elapsed)
}

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the sample fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range isolod.SampleNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
