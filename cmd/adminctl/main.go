package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"catalog_back_end/internal/auth"
	"catalog_back_end/internal/config"
	"catalog_back_end/internal/database"
	"catalog_back_end/internal/repository"
	"catalog_back_end/internal/services"
)

const commandTimeout = 30 * time.Second

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd crée la commande racine d'adminctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "adminctl",
		Short:        "Outils d'administration du catalogue",
		SilenceUsage: true,
	}
	cmd.AddCommand(NewHashPasswordCmd())
	cmd.AddCommand(NewCreateAdminCmd())
	return cmd
}

// NewHashPasswordCmd affiche le hash argon2id d'un mot de passe.
func NewHashPasswordCmd() *cobra.Command {
	var params auth.Argon2Params
	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Calcule le hash argon2id d'un mot de passe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.NewArgon2idHasher(params).Hash(args[0])
			if err != nil {
				return err
			}
			cmd.Println(hash)
			return nil
		},
	}
	defaults := auth.DefaultArgon2Params()
	cmd.Flags().Uint32Var(&params.Time, "time", defaults.Time, "nombre d'itérations argon2")
	cmd.Flags().Uint32Var(&params.Memory, "memory", defaults.Memory, "mémoire argon2 en KiB")
	cmd.Flags().Uint8Var(&params.Threads, "threads", defaults.Threads, "parallélisme argon2")
	return cmd
}

// NewCreateAdminCmd crée l'administrateur s'il n'existe pas encore.
// Les identifiants viennent des flags, sinon de ADMIN_USERNAME / ADMIN_PASSWORD.
func NewCreateAdminCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Crée l'administrateur dans le stockage configuré (idempotent)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			config.LoadDotEnv(logger)
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if username != "" {
				cfg.AdminUsername = username
			}
			if password != "" {
				cfg.AdminPassword = password
			}
			if !cfg.HasBootstrapAdmin() {
				return errors.New("identifiants manquants : --username et --password ou ADMIN_USERNAME / ADMIN_PASSWORD")
			}
			return createAdmin(cmd, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "nom de l'administrateur")
	cmd.Flags().StringVar(&password, "password", "", "mot de passe de l'administrateur")
	return cmd
}

func createAdmin(cmd *cobra.Command, cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	store, err := database.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(context.Background()) }()

	admins := repository.NewAdminRepository(store)
	if err := admins.EnsureIndexes(ctx); err != nil {
		return err
	}
	hasher := auth.NewArgon2idHasher(auth.Argon2Params{
		Time:    cfg.Argon2Time,
		Memory:  cfg.Argon2Memory,
		Threads: cfg.Argon2Threads,
	})
	created, err := services.EnsureAdmin(ctx, admins, hasher, cfg.AdminUsername, cfg.AdminPassword, logger)
	if err != nil {
		return err
	}
	if created {
		cmd.Printf("admin %q créé\n", cfg.AdminUsername)
	} else {
		cmd.Printf("admin %q déjà présent\n", cfg.AdminUsername)
	}
	return nil
}
