package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-admin/internal/config"
	"github.com/jwalitptl/clinic-admin/internal/repository/postgres"
	"github.com/jwalitptl/clinic-admin/internal/service/audit"
	authService "github.com/jwalitptl/clinic-admin/internal/service/auth"
	"github.com/jwalitptl/clinic-admin/internal/service/dashboard"
	"github.com/jwalitptl/clinic-admin/internal/service/identity"
	"github.com/jwalitptl/clinic-admin/internal/service/rbac"
	"github.com/jwalitptl/clinic-admin/internal/session"
	"github.com/jwalitptl/clinic-admin/pkg/auth"
	"github.com/jwalitptl/clinic-admin/pkg/logger"
	"github.com/jwalitptl/clinic-admin/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-admin/pkg/security"
)

const sessionNamespace = "clinicctl"

// openBinder binds the CLI session kept in Redis. Changes are broadcast on
// the identity channel so running consoles refresh. The returned func waits
// for pending broadcasts and closes the connection.
func openBinder(ctx context.Context, cfg *config.Config) (*session.Binder, func() error, error) {
	client, err := redis.NewClient(ctx, cfg.Redis.ToBrokerConfig())
	if err != nil {
		return nil, nil, err
	}
	broker := redis.NewRedisBroker(client, logger.Nop(), nil)

	ttl := time.Duration(cfg.JWT.ExpiryHours) * time.Hour
	store := session.NewRedisStore(client, sessionNamespace, ttl)
	signal := session.NewRedisSignal(broker, logger.Nop())
	binder := session.NewBinder(store, signal)

	closeSession := func() error {
		signal.Wait()
		return broker.Close()
	}
	return binder, closeSession, nil
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			base := postgres.NewBaseRepository(db)
			users := postgres.NewUserRepository(base)
			auditor := audit.NewAuditLogger(audit.NewService(postgres.NewAuditRepository(base)), logger.Nop())
			jwtSvc := auth.NewJWTService(auth.Config{
				Secret:      cfg.JWT.Secret,
				Issuer:      cfg.JWT.Issuer,
				ExpiryHours: cfg.JWT.ExpiryHours,
			})
			svc := authService.NewService(users, jwtSvc, security.NewBcryptHasher(cfg.Security.BcryptCost),
				auditor, identity.NewService(users, 0, nil, nil, nil))

			ctx := audit.WithClient(cmd.Context(), "127.0.0.1", "clinicctl")
			resp, err := svc.Login(ctx, email, password)
			if err != nil {
				return err
			}

			binder, closeSession, err := openBinder(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeSession()

			if err := binder.Persist(cmd.Context(), resp.Token, resp.User); err != nil {
				return err
			}
			binder.Refresh(cmd.Context())
			return printSession(cmd.OutOrStdout(), binder, rbac.LangES)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func whoamiCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity, its permissions and menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			binder, closeSession, err := openBinder(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeSession()

			binder.Load(cmd.Context())
			return printSession(cmd.OutOrStdout(), binder, lang)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", rbac.LangES, "Label language (es or en)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			binder, closeSession, err := openBinder(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeSession()

			if err := binder.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func printSession(w io.Writer, binder *session.Binder, lang string) error {
	if binder.State() != session.StateAuthenticated {
		_, err := fmt.Fprintln(w, "Not signed in.")
		return err
	}

	id, _ := binder.Identity()
	fmt.Fprintf(w, "%s <%s>\n", id.FullName(), id.Email)
	fmt.Fprintf(w, "Role:        %s (%s)\n", id.Role, rbac.Label(id.Role, lang))
	fmt.Fprintf(w, "Admin:       %t\n", binder.IsAdmin())
	if id.IsNew {
		fmt.Fprintln(w, "Profile:     pending completion")
	}

	perms := make([]string, 0)
	for _, p := range rbac.PermissionsFor(id.Role) {
		if binder.HasPermission(p) {
			perms = append(perms, p.String())
		}
	}
	if binder.IsSuperAdmin() {
		perms = []string{"(all)"}
	}
	fmt.Fprintf(w, "Permissions: %s\n", strings.Join(perms, ", "))

	menu := dashboard.NewService().Menu(id.Role, lang)
	fmt.Fprintf(w, "Home:        %s\n", menu.Home)
	for _, item := range menu.Items {
		fmt.Fprintf(w, "  %-18s %s\n", item.Label, item.Path)
	}
	return nil
}
