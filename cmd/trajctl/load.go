package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/n0remac/robotraj/trajectory"
)

func initLoad(root *cobra.Command) error {
	var configPath, cacheDir string
	var lossy bool
	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Decode a trajectory and print the shape of every feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, cacheDir, lossy)
			if err != nil {
				return err
			}
			traj, err := trajectory.OpenRead(args[0], cfg)
			if err != nil {
				return err
			}
			arrays, err := traj.Load()
			if err != nil {
				return err
			}
			for name, arr := range arrays {
				fmt.Printf("%s\t%s\t%v\n", name, arr.Dtype, arr.Shape)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a trajctl config file")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "decoded cache directory")
	cmd.Flags().BoolVar(&lossy, "lossy", false, "select av1 over ffv1 for image-like features")
	root.AddCommand(cmd)
	return nil
}
