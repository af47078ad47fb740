package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mkd-neo4j/neo4j-ogm/internal/config"
	"github.com/mkd-neo4j/neo4j-ogm/internal/database"
	"github.com/mkd-neo4j/neo4j-ogm/internal/domain"
	"github.com/mkd-neo4j/neo4j-ogm/internal/events"
	"github.com/mkd-neo4j/neo4j-ogm/internal/logger"
	"github.com/mkd-neo4j/neo4j-ogm/internal/server"
)

// Set via ldflags: -X main.version=...
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "neo4j-ogm",
		Short: "Object graph mapping for Neo4j, inspectable over MCP",
		Long: `neo4j-ogm maps Neo4j nodes and relationships to Go types and keeps a
per-session mapping context of what was loaded and saved.

The serve command exposes the registered mapping and a long-lived session to
MCP clients over stdio.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text, json")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("neo4j-ogm %s\n", version)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "describe",
		Short: "Print the registered mapping as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := domain.NewRegistry()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(meta.Describe())
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		RunE:  runServe,
	}
	serveCmd.Flags().String("uri", "", "Neo4j URI")
	serveCmd.Flags().String("username", "", "Neo4j username")
	serveCmd.Flags().String("password", "", "Neo4j password")
	serveCmd.Flags().String("database", "", "Neo4j database")
	serveCmd.Flags().Bool("read-only", false, "Only expose read-only tools")
	serveCmd.Flags().Int("load-depth", 0, "Default load depth (negative is unbounded)")
	serveCmd.Flags().Int("save-depth", 0, "Default save depth (negative is unbounded)")
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	slog.SetDefault(logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr))
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	meta, err := domain.NewRegistry()
	if err != nil {
		return err
	}

	dbService, err := database.Connect(ctx, cfg.URI, cfg.Username, cfg.Password, cfg.Database, cfg.ConnectAttempts)
	if err != nil {
		return err
	}

	srv := server.NewNeo4jMCPServer(version, cfg, dbService, meta, events.NewService())
	defer func() {
		if err := srv.Stop(context.Background()); err != nil {
			slog.Error("failed to stop server", "error", err)
		}
	}()
	return srv.Start(ctx)
}

// loadConfig applies command line flags over the file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("uri") {
		cfg.URI, _ = flags.GetString("uri")
	}
	if flags.Changed("username") {
		cfg.Username, _ = flags.GetString("username")
	}
	if flags.Changed("password") {
		cfg.Password, _ = flags.GetString("password")
	}
	if flags.Changed("database") {
		cfg.Database, _ = flags.GetString("database")
	}
	if flags.Changed("read-only") {
		cfg.ReadOnly, _ = flags.GetBool("read-only")
	}
	if flags.Changed("load-depth") {
		cfg.Session.LoadDepth, _ = flags.GetInt("load-depth")
	}
	if flags.Changed("save-depth") {
		cfg.Session.SaveDepth, _ = flags.GetInt("save-depth")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
