package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Fussionbart/BigBrother/internal/config"
	"github.com/Fussionbart/BigBrother/internal/runner"
	"github.com/Fussionbart/BigBrother/internal/version"
)

var (
	cfgFile string
	flags   = config.DefaultConfig()

	rootCmd = &cobra.Command{
		Use:   "bigbrother",
		Short: "Brute-force subdomain scanner with wildcard filtering",
		Long: `BigBrother - brute-force subdomain discovery for a list of target domains.

Resolves a wordlist of candidate labels against every target, filters out
wildcard (catch-all) domains, and writes per-domain subdomain/IP mappings
to CSV plus a deduplicated unique-IP list.

Examples:
  # Scan the domains in resources/targets.txt with the defaults
  bigbrother

  # Custom targets and wordlist, 100 concurrent lookups
  bigbrother -l targets.txt -w wordlist.txt -c 100

  # Query a specific resolver instead of the system one
  bigbrother -r 1.1.1.1

Press Ctrl-C to stop a run; results gathered so far are kept.`,
		RunE: runScan,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.bigbrother/config.yaml)")

	rootCmd.Flags().StringVarP(&flags.TargetsFile, "targets", "l", flags.TargetsFile, "File containing target domains, one per line")
	rootCmd.Flags().StringVarP(&flags.WordlistFile, "wordlist", "w", "", "Wordlist file (overrides --level)")
	rootCmd.Flags().StringVar(&flags.WordlistLevel, "level", flags.WordlistLevel, "Bundled wordlist level (small, medium, large)")
	rootCmd.Flags().IntVarP(&flags.Threads, "threads", "c", flags.Threads, "Concurrent DNS lookups (20, 50 or 100)")
	rootCmd.Flags().StringVarP(&flags.Resolver, "resolver", "r", "", "DNS server address (default: system resolver)")
	rootCmd.Flags().StringVarP(&flags.OutputCSV, "output", "o", flags.OutputCSV, "CSV output path")
	rootCmd.Flags().StringVar(&flags.UniqueIPsFile, "unique-ips", flags.UniqueIPsFile, "Unique IP list output path")
	rootCmd.Flags().StringVar(&flags.OutputDir, "output-dir", flags.OutputDir, "Directory for the scan database")
	rootCmd.Flags().BoolVar(&flags.Debug, "debug", false, "Verbose diagnostics")

	rootCmd.Flags().Bool("no-sqlite", false, "Disable scan history persistence")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// buildConfig layers explicitly set flags over the config file over the
// defaults.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	override := map[string]func(){
		"targets":    func() { cfg.TargetsFile = flags.TargetsFile },
		"wordlist":   func() { cfg.WordlistFile = flags.WordlistFile },
		"level":      func() { cfg.WordlistLevel = flags.WordlistLevel },
		"threads":    func() { cfg.Threads = flags.Threads },
		"resolver":   func() { cfg.Resolver = flags.Resolver },
		"output":     func() { cfg.OutputCSV = flags.OutputCSV },
		"unique-ips": func() { cfg.UniqueIPsFile = flags.UniqueIPsFile },
		"output-dir": func() { cfg.OutputDir = flags.OutputDir },
		"debug":      func() { cfg.Debug = flags.Debug },
		"no-sqlite":  func() { cfg.EnableSQLite = false },
	}
	for name, apply := range override {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	return cfg, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	printBanner()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	// Ctrl-C cancels cooperatively; accumulated results are written out.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runner.New(cfg).Run(ctx)
}

func printBanner() {
	cyan := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)
	cyan.Println(`
  ____  _       ____            _   _
 | __ )(_) __ _| __ ) _ __ ___ | |_| |__   ___ _ __
 |  _ \| |/ _` + "`" + ` |  _ \| '__/ _ \| __| '_ \ / _ \ '__|
 | |_) | | (_| | |_) | | | (_) | |_| | | |  __/ |
 |____/|_|\__, |____/|_|  \___/ \__|_| |_|\___|_|
          |___/`)
	dim.Printf("  subdomain scanner v%s\n\n", version.Version)
}
