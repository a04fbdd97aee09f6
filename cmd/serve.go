package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bitnetd/bitnetd/internal/config"
	"github.com/bitnetd/bitnetd/internal/gateway"
	"github.com/bitnetd/bitnetd/internal/runner"
	"github.com/bitnetd/bitnetd/internal/server"
	"github.com/bitnetd/bitnetd/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bitnetd gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultConfig()

		if path, _ := cmd.Flags().GetString("config"); path != "" {
			if err := config.LoadFile(path, cfg); err != nil {
				return err
			}
		}

		if model, _ := cmd.Flags().GetString("model"); model != "" {
			cfg.ModelPath = model
		}
		if exec, _ := cmd.Flags().GetString("exec"); exec != "" {
			cfg.ExecPath = exec
		}
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Port = port
		}
		if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout != 0 {
			cfg.BlockingTimeout = timeout
		}
		if timeout, _ := cmd.Flags().GetDuration("stream-timeout"); timeout != 0 {
			cfg.StreamTimeout = timeout
		}

		if cfg.ExecPath == "" {
			cfg.ExecPath = config.DefaultExecutablePath()
		}

		if cfg.ModelPath == "" {
			return fmt.Errorf("model path is required (use --model)")
		}
		if _, err := os.Stat(cfg.ModelPath); err != nil {
			return fmt.Errorf("model file not found: %s", cfg.ModelPath)
		}
		if _, err := os.Stat(cfg.ExecPath); err != nil {
			return fmt.Errorf("executable not found: %s", cfg.ExecPath)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		gw := gateway.New(cfg, runner.NewProcessRunner(), store.New(cfg.MaxConversations))
		log.Printf("bitnetd starting (model: %s)", cfg.ModelPath)

		srv := server.New(cfg, gw)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringP("model", "m", "", "path to the GGUF model file")
	serveCmd.Flags().String("exec", "", "path to the llama-cli executable")
	serveCmd.Flags().String("config", "", "path to a TOML config file")
	serveCmd.Flags().String("host", "", "bind address (default 127.0.0.1)")
	serveCmd.Flags().Int("port", 0, "listen port (default 8080)")
	serveCmd.Flags().Duration("timeout", 0, "blocking completion timeout (default 30s)")
	serveCmd.Flags().Duration("stream-timeout", 0, "streaming completion timeout (default 5m)")
	rootCmd.AddCommand(serveCmd)
}
