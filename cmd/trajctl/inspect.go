package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/n0remac/robotraj/mkv"
)

func initInspect(root *cobra.Command) error {
	var configPath string
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the stream table of a trajectory container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			reader, err := mkv.NewReader(f)
			if err != nil {
				return err
			}
			for _, s := range reader.Streams() {
				fmt.Printf("%d\t%s\t%s\t%s\t%dx%d\n", s.Index, s.Name, s.TypeString, s.Codec, s.Width, s.Height)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a trajctl config file")
	root.AddCommand(cmd)
	return nil
}
