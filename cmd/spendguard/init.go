package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"meterline/spendguard/pkg/config"
)

var initFlags struct {
	force bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Init writes a commented sample configuration to the default location
(or the path given with --config). Existing files are preserved unless
--force is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if _, err := os.Stat(path); err == nil && !initFlags.force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, []byte(config.SampleYAML), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("Wrote sample configuration to %s\n", path)
		fmt.Println("Edit the limits section, then check it with: spendguard validate")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}
