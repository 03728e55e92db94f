package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/config"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/db"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/logger"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/notification"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/referral"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/users"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/wallet"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hub-admin",
		Short:         "Operator tasks for the assignment hub backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(createAdminCmd())
	cmd.AddCommand(approveFreelancerCmd())
	return cmd
}

// connect is replaced in tests.
var connect = connectFromConfig

func connectFromConfig() (*gorm.DB, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.New(cfg.Logging.Level, true)
	gdb, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, log, fmt.Errorf("connect database: %w", err)
	}
	return gdb, log, nil
}

// userService wires the account service without a live publisher; the CLI
// only stores notifications.
func userService(gdb *gorm.DB, log zerolog.Logger) *users.Service {
	notifier := notification.NewService(gdb, nil, log)
	referrals := referral.NewService(gdb, notifier, wallet.NewWalletService(gdb), log)
	return users.NewService(gdb, notifier, referrals, log)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, log, err := connect()
			if err != nil {
				return err
			}
			if err := db.Migrate(gdb); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info().Msg("schema up to date")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var (
		email, password, firstName string
		super                      bool
	)
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an approved admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, log, err := connect()
			if err != nil {
				return err
			}
			role := models.RoleAdmin
			if super {
				role = models.RoleSuperAdmin
			}
			u, err := userService(gdb, log).CreateStaff(cmd.Context(), email, password, firstName, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", u.Role, u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&firstName, "first-name", "Admin", "display name")
	cmd.Flags().BoolVar(&super, "super", false, "create a super admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func approveFreelancerCmd() *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "approve-freelancer [email]",
		Short: "Approve a pending freelancer account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, log, err := connect()
			if err != nil {
				return err
			}
			svc := userService(gdb, log)
			ctx := cmd.Context()

			admin, err := svc.FindByEmail(ctx, as)
			if err != nil {
				return fmt.Errorf("approving admin: %w", err)
			}
			u, err := svc.FindByEmail(ctx, args[0])
			if err != nil {
				return err
			}
			operator := auth.Principal{UserID: admin.ID, Role: admin.Role, IsApproved: admin.IsApproved}
			if _, err := svc.ApproveFreelancer(ctx, operator, u.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "approved %s\n", u.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "email of the admin recorded as approver")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}
