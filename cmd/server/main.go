// Command server starts the chat-completions HTTP surface wired to the
// reference pipeline and a YAML-configured resource registry, using the
// same cobra-based cmd/ wiring as the rest of this family of tools.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vajain-rhods/openvino-model-server/envconfig"
	"github.com/vajain-rhods/openvino-model-server/resources"
	"github.com/vajain-rhods/openvino-model-server/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "server",
		Short: "chat-completions streaming calculator service",
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var configPath string
	var nodeName string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, nodeName)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", envconfig.ResourceConfigPath(), "path to the resource registry YAML file")
	cmd.Flags().StringVar(&nodeName, "node", envconfig.NodeName(), "node-instance name this server answers requests for")

	return cmd
}

func runServe(ctx context.Context, configPath, nodeName string) error {
	slog.SetLogLoggerLevel(envconfig.LogLevel())

	cfg, err := resources.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading resource config: %w", err)
	}
	registry := resources.Build(cfg)

	if _, err := registry.Lookup(nodeName); err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	host := envconfig.Host()
	ln, err := net.Listen("tcp", host)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", host, err)
	}

	srv := server.New(registry, nodeName)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx, ln, srv.Routes())
}
