package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wfunc/dungeonserver/config"
	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/persistence"
	"github.com/wfunc/dungeonserver/server"
	"github.com/wfunc/dungeonserver/state"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "dungeonserver",
	Short: "Cooperative dungeon crawl server",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the websocket and RPC servers",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", ".", "directory holding config.yaml")
	rootCmd.AddCommand(serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger.Init(cfg.Log.Level)
	defer logger.Sync()

	archive, err := persistence.Open(cfg.Database.Driver, cfg.Database.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()
	logger.Log.Infof("Archive ready (%s)", cfg.Database.Driver)

	gameServer, err := server.NewGameServer(server.Options{
		HTTPAddr: cfg.Server.HTTPAddress,
		RPCAddr:  cfg.Server.RPCAddress,
		Settings: state.Settings{
			Game:            cfg.Game.Rules(),
			LobbyWaitTicks:  cfg.Game.LobbyWaitTicks,
			SettlementTicks: cfg.Game.SettlementTicks,
			Seed:            cfg.Game.Seed,
		},
		RoomLinger: cfg.Game.RoomLinger,
		Archive:    archive,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log.Infof("Starting dungeon server %s on %s", version, cfg.Server.HTTPAddress)
	return gameServer.Run(ctx)
}
