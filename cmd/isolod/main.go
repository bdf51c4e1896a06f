// Command isolod builds an adaptive tetrahedral hierarchy over a sample
// scalar field and extracts its isosurface.
//
//	isolod extract --field torus --res 6 --viewer 0,32,0 --stl torus.stl
//	isolod chunk --field sphere --sub 15 --pem
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, level string
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	root := &cobra.Command{
		Use:          "isolod",
		Short:        "Level of detail isosurface extraction over tetrahedral hierarchies",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(level)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			return nil
		},
	}
	root.SetOut(os.Stdout)
	log.SetOutput(root.ErrOrStderr())
	root.PersistentFlags().StringVar(&configPath, "config", "", "TOML configuration file, overridden by flags")
	root.PersistentFlags().StringVar(&level, "log-level", "info", "one of debug, info, warn, error")
	root.AddCommand(
		newExtractCmd(log, &configPath),
		newChunkCmd(log, &configPath),
		newFieldsCmd(),
	)
	return root
}
