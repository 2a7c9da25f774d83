package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/plantogether/api/internal/config"
	"github.com/plantogether/api/internal/database"
	"github.com/plantogether/api/internal/repository"
	"github.com/plantogether/api/internal/service"
	"github.com/plantogether/api/pkg/jwt"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "planctl",
		Usage: "Operational tooling for the PlanTogether API.",
		Commands: []*cli.Command{
			mintTokenCommand(),
			exportCommand(),
			cleanupCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func mintTokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "mint-token",
		Usage: "Mint an admin access token for local development.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "key", Value: "./keys/private.pem", Usage: "Path to the JWT private key."},
			&cli.StringFlag{Name: "user", Value: "admin-dev-user", Usage: "User ID claim for the token."},
			&cli.StringFlag{Name: "email", Value: "admin@plantogether.app", Usage: "Email claim for the token."},
			&cli.StringFlag{Name: "issuer", Value: "plantogether", Usage: "JWT issuer."},
			&cli.IntFlag{Name: "exp", Value: 60 * 24 * 7, Usage: "Token expiration in minutes."},
			&cli.BoolFlag{Name: "json", Usage: "Output the token as JSON."},
		},
		Action: func(c *cli.Context) error {
			jwtService, err := jwt.NewService(jwt.Config{
				PrivateKeyPath: c.String("key"),
				Issuer:         c.String("issuer"),
				ExpirationMins: c.Int("exp"),
			})
			if err != nil {
				return fmt.Errorf("failed to create JWT service: %w", err)
			}

			claims := jwt.Claims{
				UserID: c.String("user"),
				Email:  c.String("email"),
				Name:   "Admin",
				Role:   "admin",
			}

			token, err := jwtService.Sign(claims)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			if c.Bool("json") {
				output := map[string]any{
					"access_token": token,
					"token_type":   "Bearer",
					"expires_in":   c.Int("exp") * 60,
					"user_id":      c.String("user"),
					"email":        c.String("email"),
					"role":         "admin",
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(output)
			}

			expTime := time.Now().Add(time.Duration(c.Int("exp")) * time.Minute)
			fmt.Println("Admin Token Generated")
			fmt.Println("=====================")
			fmt.Printf("User ID:  %s\n", c.String("user"))
			fmt.Printf("Email:    %s\n", c.String("email"))
			fmt.Printf("Role:     admin\n")
			fmt.Printf("Expires:  %s\n", expTime.Format(time.RFC3339))
			fmt.Println()
			fmt.Println("Token:")
			fmt.Println(token)
			fmt.Println()
			fmt.Println("Usage:")
			fmt.Printf("  curl -H 'Authorization: Bearer %s' http://localhost:8080/v1/events\n", token[:50]+"...")
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export-ics",
		Usage:     "Export an event's winning date as an iCalendar file.",
		ArgsUsage: "<event-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "Write the .ics to this path instead of stdout."},
		},
		Action: func(c *cli.Context) error {
			eventID := strings.TrimSpace(c.Args().First())
			if eventID == "" {
				return fmt.Errorf("event id argument is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := connect(c.Context, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			event, err := repository.NewEventRepository(db).Get(c.Context, eventID)
			if err != nil {
				return fmt.Errorf("failed to load event %s: %w", eventID, err)
			}

			calendar := service.NewCalendarService(cfg.App.CalendarDomain, cfg.App.BaseURL)
			file, err := calendar.Export(event)
			if err != nil {
				return fmt.Errorf("failed to export calendar: %w", err)
			}

			if out := c.String("out"); out != "" {
				if err := os.WriteFile(out, file.Content, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
				slog.Info("wrote calendar file", "path", out, "filename", file.Filename)
				return nil
			}

			_, err = os.Stdout.Write(file.Content)
			return err
		},
	}
}

func cleanupCommand() *cli.Command {
	return &cli.Command{
		Name:  "cleanup-tokens",
		Usage: "Delete expired and stale revoked refresh tokens.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := connect(c.Context, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			tokenRepo := repository.NewTokenRepository(db)
			if err := tokenRepo.DeleteExpiredTokens(c.Context); err != nil {
				return fmt.Errorf("failed to delete expired tokens: %w", err)
			}
			if err := tokenRepo.CleanupRevokedTokens(c.Context); err != nil {
				return fmt.Errorf("failed to clean up revoked tokens: %w", err)
			}

			slog.Info("refresh token cleanup complete")
			return nil
		},
	}
}

func connect(ctx context.Context, cfg *config.Config) (database.Database, error) {
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
