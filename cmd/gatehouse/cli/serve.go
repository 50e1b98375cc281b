package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/directory"
	"github.com/gatehouse/gatehouse/internal/identity"
	"github.com/gatehouse/gatehouse/internal/registry"
	"github.com/gatehouse/gatehouse/internal/server"
)

func newServeCmd(version string) *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Gatehouse API server",
		Long:  "Start the HTTP server that exposes the admin registry and session endpoints.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(version, host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(version, host string, port int, dev bool) error {
	logLevel := slog.LevelInfo
	if dev {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	// 1. Open the directory store (SQLite)
	dir := dataDir
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = home + "/.gatehouse"
	}
	store, err := directory.NewStore(dir)
	if err != nil {
		return fmt.Errorf("init directory store: %w", err)
	}
	defer store.Close()
	logger.Info("directory store initialized", "path", dir)

	// 2. Identity provider
	jwtSecret := viper.GetString("auth.jwt_secret")
	if jwtSecret == "" {
		jwtSecret = "gatehouse-dev-secret-change-me"
		logger.Warn("auth.jwt_secret not set, using development default")
	}
	tokenTTL := config.ParseDuration(viper.GetString("auth.jwt_expiry"), 24*time.Hour)
	provider := identity.NewLocalProvider(store, jwtSecret, tokenTTL)

	// 3. Admin registry: static superadmins merged with the directory
	superadmins := config.ParseSuperadmins(viper.GetString("auth.superadmins"))
	if len(superadmins) == 0 {
		logger.Warn("no static superadmins configured - set auth.superadmins or GATEHOUSE_AUTH_SUPERADMINS")
	} else {
		logger.Info("static superadmins configured", "count", len(superadmins))
	}
	reg := registry.New(store, provider, superadmins, logger)

	// 4. First-run hint
	admins, err := store.ListAdmins(context.Background())
	if err != nil {
		logger.Warn("failed to read admin directory", "error", err)
	}
	if len(admins) == 0 {
		logger.Warn("admin directory is empty - run: gatehouse admin create")
	}

	// 5. Build and start HTTP server
	srvCfg := server.DefaultConfig()
	srvCfg.Host = host
	srvCfg.Port = port
	srvCfg.Version = version
	if origins := viper.GetStringSlice("server.cors.origins"); len(origins) > 0 {
		srvCfg.CORSOrigins = origins
	}
	if rate := viper.GetInt("auth.login_rate_per_minute"); rate > 0 {
		srvCfg.LoginRatePerMin = rate
	}

	srv := server.New(srvCfg, store, provider, reg, logger)

	fmt.Printf("→ Gatehouse %s\n", version)
	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", host, port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", host, port)
	fmt.Println()

	return srv.ListenAndServe()
}
