package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rpcpool/richat/internal/config"
	"github.com/rpcpool/richat/internal/plugin"
	"github.com/rpcpool/richat/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "richat",
		Short: "Richat geyser streaming plugin CLI",
		Long:  "Richat streams validator events over gRPC and QUIC. This CLI validates configuration and runs the pipeline standalone.",
	}

	var configPath string

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Printf("config ok: encoder=%s max_messages=%d max_bytes=%d\n",
				cfg.Channel.Encoder, cfg.Channel.MaxMessages, cfg.Channel.MaxBytes)
			if cfg.GRPC != nil {
				fmt.Printf("grpc: %s\n", cfg.GRPC.Endpoint)
			}
			if cfg.QUIC != nil {
				fmt.Printf("quic: %s\n", cfg.QUIC.Endpoint)
			}
			if cfg.Metrics != nil {
				fmt.Printf("metrics: %s\n", cfg.Metrics.Endpoint)
			}
			return nil
		},
	}
	checkCmd.Flags().StringVarP(&configPath, "config", "c", "config.json", "path to the configuration file")
	rootCmd.AddCommand(checkCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the streaming pipeline without a validator host",
		Long:  "Loads the configuration, starts the channel and every configured server, and runs until interrupted. No events flow unless a host drives the callbacks; this mode exists to exercise deployment configs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Runtime.WorkerThreads > 0 {
				runtime.GOMAXPROCS(cfg.Runtime.WorkerThreads)
			}

			p := &plugin.Plugin{}
			if err := p.OnLoad(configPath); err != nil {
				return fmt.Errorf("load plugin: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			p.OnUnload()
			return nil
		},
	}
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "config.json", "path to the configuration file")
	rootCmd.AddCommand(serveCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Current()
			fmt.Printf("%s %s", info.Package, info.Version)
			if info.Commit != "" {
				fmt.Printf(" (%s)", info.Commit)
			}
			fmt.Println()
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
