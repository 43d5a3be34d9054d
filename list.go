package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soocke/camgrab-go/v4l2"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List V4L2 device nodes present on this system",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := v4l2.GetAllDevicePaths()
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
