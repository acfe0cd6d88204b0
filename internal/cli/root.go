// Package cli wires the cobra command tree: the root audit command plus
// the management subcommands for agents, login items, ports, profiles,
// snapshots, and the timeline.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ianheil/macwatchdog-cli/internal/config"
	"github.com/ianheil/macwatchdog-cli/internal/manager"
	"github.com/ianheil/macwatchdog-cli/internal/probe"
	"github.com/ianheil/macwatchdog-cli/internal/store"
)

// Exit codes: 0 clean, 1 alerts found, 2 operational error.
const (
	ExitOK     = 0
	ExitAlerts = 1
	ExitError  = 2
)

var (
	cfgFile    string
	formatName string
	outputPath string
	checksSpec string
	listChecks bool
	noColor    bool
	quiet      bool
	debug      bool
	assumeYes  bool

	cfg *config.Config
	log zerolog.Logger
	st  *store.Store
	env *probe.Env

	// exitCode is set by the audit run; Execute returns it.
	exitCode = ExitOK
)

var rootCmd = &cobra.Command{
	Use:   "macwatchdog",
	Short: "macOS security posture audit and quarantine tool",
	Long: `macwatchdog audits a macOS host's security posture: MDM enrollment,
launch agents, configuration profiles, login items, open ports, privacy
permissions, and system hardening state. Suspicious findings can be
quarantined with automatic backups and restored later.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listChecks {
			printCheckList(cmd.OutOrStdout())
			return nil
		}
		return runAudit(cmd.OutOrStdout())
	},
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return exitCode
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.macwatchdog/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress banner and OK results")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug diagnostics on stderr")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "assume yes on confirmation prompts")

	rootCmd.Flags().StringVarP(&formatName, "format", "f", "text", "output format: text, json, jsonl, yaml")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the report to a file instead of stdout")
	rootCmd.Flags().StringVar(&checksSpec, "checks", "", "comma separated check numbers or name substrings to run")
	rootCmd.Flags().BoolVar(&listChecks, "list-checks", false, "list available checks and exit")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initRuntime()
	}

	rootCmd.AddCommand(newAgentsCmd())
	rootCmd.AddCommand(newLoginItemsCmd())
	rootCmd.AddCommand(newPortsCmd())
	rootCmd.AddCommand(newProfilesCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newTimelineCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newUninstallCmd())
}

// initRuntime loads configuration and builds the shared probe
// environment, store, and logger every command uses.
func initRuntime() error {
	if noColor {
		color.NoColor = true
	}

	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if debug {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.Disabled)
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("cannot load configuration: %w", err)
	}

	st = store.New(cfg.QuarantineRoot)
	env = probe.NewEnv(cfg, log)
	return nil
}

func agentManager() *manager.AgentManager {
	return manager.NewAgentManager(cfg, st, env.Runner, log)
}

func loginItemManager() *manager.LoginItemManager {
	return manager.NewLoginItemManager(st, env.Bridge, log)
}

func portManager() *manager.PortManager {
	return manager.NewPortManager(st, env.Runner, log)
}

func profileManager() *manager.ProfileManager {
	return manager.NewProfileManager(cfg, st, env.Runner, log)
}

func snapshotManager() *manager.SnapshotManager {
	return manager.NewSnapshotManager(st, profileManager(), log)
}

// confirm prompts for y/n on stdin. --yes skips the prompt. Anything but
// an explicit "y" declines.
func confirm(prompt string) bool {
	if assumeYes {
		return true
	}
	fmt.Printf("%s (y/n): ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

func printSuccess(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

func printFailure(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", color.RedString("✗"), fmt.Sprintf(format, args...))
}

func printWarn(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", color.YellowString("!"), fmt.Sprintf(format, args...))
}
