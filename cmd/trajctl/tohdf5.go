package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/n0remac/robotraj/cache"
	"github.com/n0remac/robotraj/trajectory"
)

func initToHDF5(root *cobra.Command) error {
	var configPath, cacheDir string
	cmd := &cobra.Command{
		Use:   "to-hdf5 <file> <dest>",
		Short: "Load a trajectory's decoded cache and export it under dest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, cacheDir, false)
			if err != nil {
				return err
			}
			if cfg.CacheDir == "" {
				return fmt.Errorf("to-hdf5 requires --cache-dir (or a config file setting cache_dir)")
			}
			traj, err := trajectory.OpenRead(args[0], cfg)
			if err != nil {
				return err
			}
			if _, err := traj.Load(); err != nil {
				return err
			}
			return cache.ToHDF5(cfg.CacheDir, args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a trajctl config file")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "decoded cache directory")
	root.AddCommand(cmd)
	return nil
}
