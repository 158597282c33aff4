package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xhscraper/pkg/config"
)

// configCmd groups configuration management subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage xhscraper configuration",
}

// configInitCmd writes a default config file
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile
		if path == "" {
			path = filepath.Join(os.Getenv("HOME"), ".config", "xhscraper", "config.yaml")
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}

		cfg := config.DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default configuration to %s\n", path)
		return nil
	},
}

// configShowCmd prints the effective configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, nil)
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
