package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-admin/internal/config"
	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/internal/repository"
	"github.com/jwalitptl/clinic-admin/internal/repository/postgres"
	"github.com/jwalitptl/clinic-admin/internal/service/rbac"
	"github.com/jwalitptl/clinic-admin/pkg/security"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinicctl",
		Short:         "Clinic admin maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Directory holding config.yaml")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createSuperAdminCmd())
	rootCmd.AddCommand(rolesCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(logoutCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, _ := cmd.Flags().GetString("config")
	if dir == "" {
		return config.LoadConfig()
	}
	return config.LoadConfig(dir)
}

func openDB(cmd *cobra.Command) (*config.Config, *sqlx.DB, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(db.DB); err != nil {
				return err
			}
			version, err := postgres.MigrationVersion(db.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d.\n", version)
			return nil
		},
	}
	return cmd
}

func createSuperAdminCmd() *cobra.Command {
	var req model.CreateUserRequest
	cmd := &cobra.Command{
		Use:   "create-superadmin",
		Short: "Create the first SUPERADMIN account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(db.DB); err != nil {
				return err
			}

			req.Role = model.RoleSuperAdmin
			user, err := newAccount(security.NewBcryptHasher(cfg.Security.BcryptCost), &req)
			if err != nil {
				return err
			}

			repo := postgres.NewUserRepository(postgres.NewBaseRepository(db))
			if err := repo.Create(cmd.Context(), user); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return fmt.Errorf("an account with email %s already exists", user.Email)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s) with id %s.\n", user.Email, user.Role, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Initial password")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// newAccount builds an active account that still has to complete its profile.
func newAccount(hasher security.PasswordHasher, req *model.CreateUserRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email %q", req.Email)
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", req.Role)
	}

	hash, err := hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         req.Role,
		IsActive:     true,
		IsNew:        true,
	}, nil
}

func rolesCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Print the role permission table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printRoles(cmd.OutOrStdout(), lang)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", rbac.LangES, "Label language (es or en)")
	return cmd
}

func printRoles(w io.Writer, lang string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tLABEL\tCOLOR\tPERMISSIONS")
	for _, info := range rbac.Describe(lang) {
		perms := make([]string, 0, len(info.Permissions))
		for _, p := range info.Permissions {
			perms = append(perms, p.String())
		}
		list := strings.Join(perms, ", ")
		if info.AllAccess {
			list = "(all)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Role, info.Label, info.Color, list)
	}
	return tw.Flush()
}
