package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soocke/camgrab-go/domain/capture"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print driver, card and format information for a device",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("device")
		if path == "" {
			path = viper.GetString("device_path")
		}
		transport, err := capture.OpenDevice(path)
		if err != nil {
			return err
		}
		defer transport.Close()

		cap, err := transport.Capability()
		if err != nil {
			return err
		}
		fmt.Printf("%s\n  %s\n", path, cap.String())

		pix, err := transport.Format()
		if err != nil {
			return err
		}
		fmt.Printf("  current format: %s\n", pix.String())
		return nil
	},
}

func init() {
	infoCmd.Flags().StringP("device", "d", "", "capture device node")
	rootCmd.AddCommand(infoCmd)
}
