package cli

import (
	"fmt"
	"os"

	"mediashelf/internal/config"
	"mediashelf/internal/logging"

	"github.com/spf13/cobra"
)

func NewInitConfigCommand(globalOptions *GlobalOptions) *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a configuration file with every setting at its default",
		Long:  "Writes the defaults, with the library root and database path taken from the flags when given. An existing file is kept unless --force is set.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalOptions.CfgFilePath
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration file %s already exists, use --force to overwrite it", path)
			}

			conf := config.Default()
			if globalOptions.LibraryRoot != "" {
				conf.Library.Root = globalOptions.LibraryRoot
			}
			if globalOptions.DBPath != "" {
				conf.Database.Path = globalOptions.DBPath
			}
			if err := config.SaveConfig(path, conf); err != nil {
				return err
			}
			logging.Log.Infof("Configuration written to %s", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file.")

	return initCmd
}
