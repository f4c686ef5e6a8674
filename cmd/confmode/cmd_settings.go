package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/confmode/confmode/pkg/cli"
	"github.com/confmode/confmode/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.confmode/settings.json.

Settings provide defaults for global flags:
  - config_file:    -c when not given
  - effective_file: -e when not given
  - redis_addr:     --redis when not given
  - redis_db:       --redis-db when not given
  - audit_log:      audit log path
  - frr_host:       --host when not given
  - frr_user:       --user when not given

Examples:
  confmode settings show
  confmode settings set config_file /config/config.yaml
  confmode settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

		t := cli.NewTable(os.Stdout, "SETTING", "VALUE")
		printSetting := func(name, value string) {
			if value == "" {
				value = "(not set)"
			}
			t.Row(name, value)
		}

		for _, key := range settings.Keys() {
			printSetting(key, settingValue(s, key))
		}
		t.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			s = &settings.Settings{}
		}
		if err := s.Set(args[0], args[1]); err != nil {
			return fmt.Errorf("%w (valid: %s)", err, strings.Join(settings.Keys(), ", "))
		}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Printf("%s set to: %s\n", args[0], args[1])
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		s.Clear()
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println("Settings cleared.")
		return nil
	},
}

func settingValue(s *settings.Settings, key string) string {
	switch key {
	case "config_file":
		return s.ConfigFile
	case "effective_file":
		return s.EffectiveFile
	case "redis_addr":
		return s.RedisAddr
	case "redis_db":
		if s.RedisDB == 0 {
			return ""
		}
		return strconv.Itoa(s.RedisDB)
	case "audit_log":
		return s.AuditLog
	case "frr_host":
		return s.FRRHost
	case "frr_user":
		return s.FRRUser
	}
	return ""
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsClearCmd)
}
