// Package initcmder provides the init command for initializing a local
// .movetune directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/movetune/movetune/pkg/cliui"
	"github.com/movetune/movetune/pkg/config"
)

const (
	dirName = ".movetune"
)

const initLongDesc string = `Initialize a new .movetune/ directory in the current working directory.

Creates a local .movetune/ directory that takes precedence over the
default ~/.movetune/ directory for configuration, credentials, and run
state, and scaffolds a config.toml from a source language preset.

This is useful for maintaining separate movetune state per dataset
project.

Examples:
  movetune init
  movetune init --preset solidity`

const initShortDesc string = "Initialize a local .movetune/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(preset)
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "move",
		fmt.Sprintf("Source language preset (%s)", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func runInit(preset string) error {
	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err == nil {
		fmt.Printf("\n  %s Already initialized: %s\n\n", cliui.DimStyle.Render("●"), dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .movetune directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("\n  %s Initialized %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(dir),
		cliui.DimStyle.Render("("+strings.ToLower(preset)+" preset)"),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Set the source repository with 'movetune config set github.repo <owner/name>'."))

	return nil
}
