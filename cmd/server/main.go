package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/nejcz/zaloga/internal/api"
	"github.com/nejcz/zaloga/internal/config"
	"github.com/nejcz/zaloga/internal/db"
	"github.com/nejcz/zaloga/internal/mail"
	"github.com/nejcz/zaloga/internal/model"
	"github.com/nejcz/zaloga/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: zaloga <init|serve>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		cmdInit(cfg)
	case "serve":
		cmdServe(cfg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\nUsage: zaloga <init|serve>\n", os.Args[1])
		os.Exit(1)
	}
}

func cmdInit(cfg *config.Config) {
	if _, err := os.Stat(cfg.Database.Path); err == nil {
		fmt.Fprintf(os.Stderr, "Error: database file %s already exists\n", cfg.Database.Path)
		os.Exit(1)
	}

	database, password, err := initDatabase(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	database.Close()

	printAdminCredentials(cfg.Database.Path, password)
}

func cmdServe(cfg *config.Config) {
	// Auto-generate JWT secret if not provided.
	if cfg.Auth.JWTSecret == "" {
		secret, err := generatePassword(32)
		if err != nil {
			log.Fatalf("Failed to generate JWT secret: %v", err)
		}
		cfg.Auth.JWTSecret = secret
		log.Println("JWT secret auto-generated (tokens will be invalidated on restart)")
	}

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.Database.Path); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		database.Close()

		printAdminCredentials(cfg.Database.Path, password)
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// Run migrations (idempotent).
	if err := db.Migrate(database); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	sender := mail.NewSender(cfg.Mail)
	handler := api.LoggingMiddleware(api.NewRouter(database, cfg, sender))

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	fmt.Printf("Server listening on %s\n", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printAdminCredentials(path, password string) {
	fmt.Printf("Database created: %s\n", path)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: admin\n")
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password — it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
	fmt.Println()
}

// initDatabase creates a new database, runs migrations, and creates the admin user.
func initDatabase(path string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.Migrate(database); err != nil {
		return fail(fmt.Errorf("running migrations: %w", err))
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fail(fmt.Errorf("hashing password: %w", err))
	}

	ctx := context.Background()
	admin, err := store.CreateUser(ctx, database, "admin", "admin@localhost", string(hash), "")
	if err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}
	if err := store.UpdateUserRole(ctx, database, admin.ID, model.RoleAdmin); err != nil {
		return fail(fmt.Errorf("promoting admin user: %w", err))
	}

	return database, password, nil
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
