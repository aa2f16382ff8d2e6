package cli

import (
	"github.com/spf13/cobra"

	"github.com/Fussionbart/BigBrother/internal/server"
)

var (
	serverPort int
	serverHost string

	serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Start the web dashboard",
		Long: `Start the BigBrother web dashboard.

Serves a REST API for launching and inspecting scans plus a WebSocket
stream of live progress events.

Examples:
  bigbrother server
  bigbrother server --port 9000 --host 0.0.0.0`,
		RunE: runServer,
	}
)

func init() {
	serverCmd.Flags().IntVarP(&serverPort, "port", "p", 8877, "Port to listen on")
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Host to bind to")
}

func runServer(cmd *cobra.Command, args []string) error {
	printBanner()

	scanCfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Port = serverPort
	srvCfg.Host = serverHost
	srvCfg.Debug = scanCfg.Debug
	srvCfg.ScanConfig = scanCfg

	return server.New(srvCfg).Start()
}
