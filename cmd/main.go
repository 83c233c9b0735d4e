package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aabtools/apkset/internal/config"
	"github.com/aabtools/apkset/internal/logging"
)

var (
	cfg        *config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "apkset",
	Short: "CLI tool for packaging app bundles into device-specific APK sets",
	Long:  "A CLI tool that splits an app bundle along device configuration dimensions and packages the results into a signed, size-annotated APK set archive",
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file")
	rootCmd.PersistentFlags().String("log_level", "", "Log level (trace, debug, info, warn, error)")
}

func initConfig() {
	var err error
	cfg, err = config.LoadConfig(configPath, rootCmd)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logging.InitLogger(cfg.LogLevel)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
