package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/directory"
	"github.com/gatehouse/gatehouse/internal/identity"
	"github.com/gatehouse/gatehouse/internal/model"
	"github.com/gatehouse/gatehouse/internal/registry"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
		Long:  "Create and list administrators in the directory. Runs against the local store, bypassing the API; use it to bootstrap the first account.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new administrator",
		Example: `  gatehouse admin create --email admin@example.com --password secret
  gatehouse admin create --email admin@example.com  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(email, password, name, role)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Admin display name")
	cmd.Flags().StringVar(&role, "role", model.RoleAdmin, "Role: admin or superadmin")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runAdminCreate(email, password, name, role string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %q", email)
	}
	if role != model.RoleAdmin && role != model.RoleSuperadmin {
		return fmt.Errorf("invalid role: %q", role)
	}

	// Prompt for password if not provided
	if password == "" {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		password = string(pwBytes)

		fmt.Print("Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		fmt.Println()

		if password != string(confirmBytes) {
			return fmt.Errorf("passwords do not match")
		}
	}

	if len(password) < registry.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", registry.MinPasswordLength)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	provider := identity.NewLocalProvider(store, "", time.Hour)

	subjectID, err := provider.Provision(ctx, email, password)
	if err != nil {
		return fmt.Errorf("provision credential: %w", err)
	}

	now := time.Now().UTC()
	admin := &model.Admin{
		ID:        subjectID,
		Email:     strings.ToLower(email),
		Role:      role,
		Active:    true,
		CreatedAt: &now,
	}
	admin.DisplayName = name

	if err := store.CreateAdmin(ctx, admin); err != nil {
		return fmt.Errorf("write directory record: %w", err)
	}

	fmt.Printf("Created %s %q (id %s)\n", role, admin.Email, subjectID)
	return nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the merged administrator registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(jsonOutput bool) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	superadmins := config.ParseSuperadmins(viper.GetString("auth.superadmins"))

	persisted, err := store.ListAdmins(context.Background())
	if err != nil {
		logger.Warn("directory unreachable, listing static entries only", "error", err)
		persisted = nil
	}
	admins := registry.Merge(superadmins, persisted)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(admins)
	}

	if len(admins) == 0 {
		fmt.Println("No administrators found.")
		return nil
	}

	fmt.Printf("%-40s %-12s %-8s %s\n", "EMAIL", "ROLE", "ACTIVE", "SOURCE")
	for _, a := range admins {
		source := "directory"
		if a.Static {
			source = "static"
		}
		fmt.Printf("%-40s %-12s %-8t %s\n", a.Email, a.Role, a.Active, source)
	}
	return nil
}

func openStore() (*directory.Store, error) {
	dir := dataDir
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = home + "/.gatehouse"
	}
	store, err := directory.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open directory store: %w", err)
	}
	return store, nil
}
