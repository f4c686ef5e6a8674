// confmode - configuration scripts for routing and login services
//
// Each script maps one subtree of the configuration tree to one backend:
//
//	rip              protocols rip              FRR ripd
//	radius           system login radius        pam_radius, nsswitch
//	segment-routing  protocols segment-routing  FRR zebra, seg6 sysctls
//
// A run extracts the subtree with its defaults, verifies it, renders the
// backend configuration and applies it. Runs preview by default (print the
// daemon diff, files and commands); -x applies.
//
// Examples:
//
//	confmode -c config.yaml -e effective.yaml rip     # preview the ripd change
//	confmode -c config.yaml -e effective.yaml rip -xs # apply, save as effective
//	confmode --redis 127.0.0.1:6379 radius -x         # trees from Redis
//	confmode --host r1 --user admin rip -x            # reload FRR on r1
//	confmode show rip                                 # print rendered ripd text
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/confmode/confmode/pkg/audit"
	"github.com/confmode/confmode/pkg/settings"
	"github.com/confmode/confmode/pkg/util"
	"github.com/confmode/confmode/pkg/version"
)

var (
	// Configuration store flags
	configFile    string // -c, --config
	effectiveFile string // -e, --effective
	redisAddr     string
	redisDB       int
	table         string
	runningTable  string

	// FRR host flags
	frrHost     string
	frrUser     string
	frrPassword string

	// Global option flags
	executeMode bool
	saveMode    bool
	verbose     bool
	jsonLog     bool

	// Global state
	userSettings *settings.Settings
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "confmode",
	Short:             "Configuration scripts for routing and login services",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `confmode applies one configuration subtree to its backend service.

Every script extracts its subtree, verifies it, renders the backend
configuration and applies it. Scripts preview changes by default; use -x to
execute.

  confmode -c <config> [-e <effective>] <script> [-x] [-s]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Validate flag combinations
		if saveMode && !executeMode {
			return fmt.Errorf("--save (-s) requires --execute (-x): use -xs to execute and save")
		}

		// Set log level: quiet by default, verbose on -v
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		if jsonLog {
			util.SetJSONFormat()
		}

		if isSettingsOrHelp(cmd) {
			return nil
		}

		// Load user settings
		var err error
		userSettings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			userSettings = &settings.Settings{}
		}
		applySettings(cmd)

		// Initialize audit logger
		auditLogger, err := audit.NewFileLogger(userSettings.GetAuditLog(), audit.RotationConfig{
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxBackups: 10,
		})
		if err != nil {
			util.Debugf("Could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}

		return nil
	},
}

// applySettings fills flags the user did not pass from the settings file.
func applySettings(cmd *cobra.Command) {
	flags := cmd.Flags()
	if !flags.Changed("config") && configFile == "" {
		configFile = userSettings.ConfigFile
	}
	if !flags.Changed("effective") && effectiveFile == "" {
		effectiveFile = userSettings.EffectiveFile
	}
	if !flags.Changed("redis") && redisAddr == "" {
		redisAddr = userSettings.RedisAddr
	}
	if !flags.Changed("redis-db") {
		redisDB = userSettings.RedisDB
	}
	if !flags.Changed("host") && frrHost == "" {
		frrHost = userSettings.FRRHost
	}
	if !flags.Changed("user") && frrUser == "" {
		frrUser = userSettings.FRRUser
	}
}

func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "settings", "help", "version":
			return true
		}
	}
	return false
}

func init() {
	pf := rootCmd.PersistentFlags()

	// Configuration store
	pf.StringVarP(&configFile, "config", "c", "", "Proposed configuration (YAML)")
	pf.StringVarP(&effectiveFile, "effective", "e", "", "Effective configuration (YAML)")
	pf.StringVar(&redisAddr, "redis", "", "Read both trees from Redis at this address instead of files")
	pf.IntVar(&redisDB, "redis-db", 0, "Redis database number")
	pf.StringVar(&table, "table", "CONFIG", "Redis table of the proposed configuration")
	pf.StringVar(&runningTable, "running-table", "RUNNING", "Redis table of the effective configuration")

	// FRR host
	pf.StringVar(&frrHost, "host", "", "Run vtysh and frr-reload on this host over SSH")
	pf.StringVar(&frrUser, "user", "", "SSH user for --host")
	pf.StringVar(&frrPassword, "password", "", "SSH password for --host (prompted when empty)")

	// Option flags (global)
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	pf.BoolVar(&jsonLog, "json-log", false, "Log in JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "scripts", Title: "Configuration Scripts:"},
		&cobra.Group{ID: "meta", Title: "Inspection & Meta:"},
	)

	for _, s := range scripts() {
		cmd := scriptCommand(s)
		addWriteFlags(cmd)
		cmd.GroupID = "scripts"
		rootCmd.AddCommand(cmd)
	}

	for _, cmd := range []*cobra.Command{listCmd, showCmd, auditCmd, settingsCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

// addWriteFlags registers -x/-s on a command that changes the system.
func addWriteFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&executeMode, "execute", "x", false, "Apply changes (default is preview)")
	cmd.Flags().BoolVarP(&saveMode, "save", "s", false, "Save the subtree as effective after applying (requires -x)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("confmode dev build (set version.Version via -ldflags for release info)")
		} else {
			fmt.Println(version.Info())
		}
	},
}
