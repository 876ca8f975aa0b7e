package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Kondomino/kondo-movie-sub001/internal/config"
	"github.com/Kondomino/kondo-movie-sub001/internal/logging"
	"github.com/Kondomino/kondo-movie-sub001/internal/system"
)

// version задается при сборке: -ldflags "-X main.version=..."
var version = "dev"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "moviemaker",
	Short: "Собирает маркетинговые ролики по EDL",
	Long: `moviemaker собирает ролик об объекте недвижимости из списка клипов (EDL):
фото и страницы PDF, титры, логотипы, водяной знак, субтитры, музыка и озвучка.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		logging.Init(verbose)

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config %s: %w", configPath, err)
		}
		cfg.ApplyEnv()
		cfg.BuildVersion = version

		system.InitResourceLimits(logging.WithComponent("system"))
		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "moviemaker.yaml", "Файл настроек (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный лог")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(edlCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("moviemaker failed")
		fmt.Fprintf(os.Stderr, "[-] Ошибка: %v\n", err)
		os.Exit(1)
	}
}
