package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Kondomino/kondo-movie-sub001/internal/config"
	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/logging"
)

var validateCmd = &cobra.Command{
	Use:   "validate <edl-file>",
	Short: "Проверить EDL без рендера",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := edl.ReadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("[+] %s: клипов %d, %d fps, %s, длительность %s\n",
			e.Name, len(e.Clips), e.FPS, e.Orientation, e.Duration())
		return nil
	},
}

var edlCmd = &cobra.Command{
	Use:   "edl",
	Short: "Хранилище EDL в Redis",
}

var pullOut string

var edlPushCmd = &cobra.Command{
	Use:   "push <file>",
	Short: "Сохранить EDL из файла под его именем",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := edl.ReadFile(args[0])
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, s *edl.Store) error {
			if err := s.Save(ctx, e); err != nil {
				return err
			}
			fmt.Printf("[+] Сохранено: %s\n", e.Name)
			return nil
		})
	},
}

var edlPullCmd = &cobra.Command{
	Use:   "pull <name>",
	Short: "Выгрузить EDL в файл или stdout (YAML)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, s *edl.Store) error {
			e, err := s.Load(ctx, args[0])
			if err != nil {
				return err
			}
			if pullOut != "" {
				return edl.WriteFile(e, pullOut)
			}
			data, err := edl.Marshal(e, edl.FormatYAML)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		})
	},
}

var edlListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список сохраненных EDL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, s *edl.Store) error {
			names, err := s.List(ctx)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		})
	},
}

var edlDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Удалить EDL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, s *edl.Store) error {
			return s.Delete(ctx, args[0])
		})
	},
}

func init() {
	edlPullCmd.Flags().StringVarP(&pullOut, "out", "o", "", "Файл результата (.json или .yaml)")

	edlCmd.AddCommand(edlPushCmd)
	edlCmd.AddCommand(edlPullCmd)
	edlCmd.AddCommand(edlListCmd)
	edlCmd.AddCommand(edlDeleteCmd)
}

func openStore(ctx context.Context, cfg *config.Config) (*edl.Store, error) {
	return edl.NewStore(ctx, edl.StoreConfig{
		Addr:      cfg.Redis.Addr,
		Password:  cfg.Redis.Password,
		DB:        cfg.Redis.DB,
		KeyPrefix: cfg.Redis.KeyPrefix,
	}, logging.WithComponent("edl"))
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, s *edl.Store) error) error {
	ctx := cmd.Context()
	s, err := openStore(ctx, config.FromContext(ctx))
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}
