package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/reasm-dev/reasm/internal/logger"
	"github.com/reasm-dev/reasm/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the reasm server", zap.String("version", resolvedVersion()))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := buildComponents(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the analysis pipeline", zap.Error(err))
	}

	srv := server.New(server.Config{
		Addr:           config.Server.Addr,
		MaxUploadBytes: config.Server.MaxUploadBytes,
		WriteTimeout:   config.Pipeline.Timeout + 30*time.Second,
		Info: map[string]string{
			"version":  resolvedVersion(),
			"strategy": comps.strategy,
		},
	}, comps.pipeline, logger)

	runErr := srv.ListenAndServe(ctx)
	if err := comps.Close(); err != nil {
		logger.Warn("closing the similarity index", zap.Error(err))
	}
	if runErr != nil {
		logger.Fatal("serving", zap.Error(runErr))
	}

	logger.Info("server stopped")
}
