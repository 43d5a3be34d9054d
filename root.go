package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soocke/camgrab-go/config"
	"github.com/soocke/camgrab-go/domain/capture"
)

var rootCmd = &cobra.Command{
	Use:   "camgrab",
	Short: "Capture raw frames from a V4L2 device using memory-mapped streaming",
	Long: `Camgrab opens a video capture device, negotiates memory-mapped
streaming buffers with the driver and captures a bounded number of
frames. With --output the raw frame bytes go to standard output; one
progress marker per frame and all diagnostics go to standard error.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCapture,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (JSON)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging and runtime stats")
	rootCmd.Flags().StringP("device", "d", config.DefaultDevice, "capture device node")
	rootCmd.Flags().BoolP("output", "o", false, "write raw frame bytes to standard output")
	rootCmd.Flags().BoolP("format", "f", false, "force 640x480 YUYV instead of the device's current format")
	rootCmd.Flags().IntP("count", "n", 70, "number of frames to capture")
	rootCmd.Flags().Uint32("buffers", 4, "number of device buffers to request (minimum 2)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("device_path", rootCmd.Flags().Lookup("device"))
	_ = viper.BindPFlag("raw_output", rootCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("force_format", rootCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("frame_count", rootCmd.Flags().Lookup("count"))
	_ = viper.BindPFlag("buffer_count", rootCmd.Flags().Lookup("buffers"))
}

func initConfig() {
	for k, v := range defaultsAsMap() {
		viper.SetDefault(k, v)
	}

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		viper.SetConfigType("json")
		_ = viper.ReadInConfig()
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CAMGRAB")
}

// defaultsAsMap exposes config defaults under their JSON key names so
// viper layering (file, env, flags) starts from the same values as
// config.DefaultConfig.
func defaultsAsMap() map[string]any {
	d := config.DefaultConfig()
	return map[string]any{
		"debug":           d.Debug,
		"device_path":     d.DevicePath,
		"frame_count":     d.FrameCount,
		"buffer_count":    d.BufferCount,
		"force_format":    d.ForceFormat,
		"raw_output":      d.RawOutput,
		"timeout_seconds": d.TimeoutSeconds,
	}
}

// loadConfig materializes the layered viper state into a validated Config.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	decode := func(dc *mapstructure.DecoderConfig) { dc.TagName = "json" }
	if err := viper.Unmarshal(cfg, decode); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level)

	if cfg.Debug {
		startRuntimeLoggers(logger)
	}

	transport, err := capture.OpenDevice(cfg.DevicePath)
	if err != nil {
		logger.Error("open device", "path", cfg.DevicePath, "error", err)
		return err
	}
	defer func() {
		if err := transport.Close(); err != nil {
			logger.Error("close device", "error", err)
		}
	}()

	var sink capture.FrameSink = capture.DiscardSink{}
	if cfg.RawOutput {
		sink = capture.NewWriterSink(os.Stdout)
	}

	session := capture.NewSession(transport, cfg, logger, sink)
	session.Progress = os.Stderr

	logger.Info("capturing",
		"device", cfg.DevicePath,
		"frames", cfg.FrameCount,
		"buffers", cfg.BufferCount,
		"force_format", cfg.ForceFormat,
	)
	if err := session.Run(); err != nil {
		logger.Error("capture failed", "error", err)
		return err
	}
	fmt.Fprintln(os.Stderr)
	logger.Info("capture complete", "frames", session.Stats().Delivered)
	return nil
}
