package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"strobe/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage strobe configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ctx.configValue()
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sample configuration written to %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configValue())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if exists {
				fmt.Fprintf(out, "Config file: %s\n", path)
			} else {
				fmt.Fprintf(out, "Config file: %s (not found, using defaults)\n", path)
			}
			fmt.Fprintf(out, "Library:     %s\n", cfg.Paths.LibraryDir)
			fmt.Fprintf(out, "Logs:        %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "API bind:    %s\n", cfg.Paths.APIBind)
			fmt.Fprintf(out, "Retention:   %d days, %d pairs max, automatic=%v\n",
				cfg.Retention.MaxAgeDays, cfg.Retention.MaxPairCount, cfg.Retention.AutomaticCleanup)
			fmt.Fprintf(out, "Capture:     countdown %ds, minimum display %ds\n",
				cfg.Capture.CountdownSeconds, cfg.Capture.MinimumDisplaySeconds)
			fmt.Fprintf(out, "Slideshow:   %ds per image, rescan every %ds, prefetch window %d\n",
				cfg.Slideshow.DisplaySeconds, cfg.Slideshow.RescanSeconds, cfg.Slideshow.PrefetchWindow)
			return nil
		},
	})

	return cmd
}
