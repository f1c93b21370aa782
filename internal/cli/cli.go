package cli

import (
	"fmt"
	"os"

	"mediashelf/internal/config"

	"github.com/spf13/cobra"
)

// GlobalOptions holds the flags shared by every command and the configuration
// loaded from them.
type GlobalOptions struct {
	CfgFilePath string
	LogLevel    string
	LibraryRoot string
	DBPath      string
	AuditLog    bool

	Version string
	Conf    *config.Config
}

func NewRootCMD(version string) *cobra.Command {
	globalOptions := &GlobalOptions{Version: version}

	rootCMD := &cobra.Command{
		Use:           "mediashelf",
		Short:         "MediaShelf media collection organizer",
		Long:          "Indexes a folder of images and videos, keeps a tag catalog with dependencies and lists the collection page by page.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return globalOptions.loadConfig(cmd)
		},
	}

	// register global flags
	globalOptions.registerFlags(rootCMD)

	// add subcommands
	rootCMD.AddCommand(NewRunCommand(globalOptions))
	rootCMD.AddCommand(NewScanCommand(globalOptions))
	rootCMD.AddCommand(NewListCommand(globalOptions))
	rootCMD.AddCommand(NewMigrateCommand(globalOptions))
	rootCMD.AddCommand(NewTagCommand(globalOptions))
	rootCMD.AddCommand(NewItemCommand(globalOptions))
	rootCMD.AddCommand(NewInitConfigCommand(globalOptions))

	return rootCMD
}

func (options *GlobalOptions) registerFlags(cmd *cobra.Command) {
	// flags that can be used for each command
	cmd.PersistentFlags().StringVar(&options.CfgFilePath, "config_path", defaultConfigPath, "Path to the base configuration file. (Env: MEDIASHELF_CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&options.LogLevel, "log-level", "", "Logging level (debug, info, warn, error). (Env: MEDIASHELF_LOGGING_LEVEL)")
	cmd.PersistentFlags().StringVar(&options.LibraryRoot, "library-root", "", "Root folder of the media library. (Env: MEDIASHELF_LIBRARY_ROOT)")
	cmd.PersistentFlags().StringVar(&options.DBPath, "db-path", "", "Path to the SQLite database. (Env: MEDIASHELF_DATABASE_PATH)")
	cmd.PersistentFlags().BoolVar(&options.AuditLog, "audit-enabled", false, "Enable detailed audit logging. (Env: MEDIASHELF_LOGGING_AUDIT_ENABLED=true)")
}

func Execute(version string) {
	rootCmd := NewRootCMD(version)

	// Run the command based on os.Args
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
