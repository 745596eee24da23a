package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/blinko/backend/internal/admin"
	"github.com/blinko/backend/internal/config"
	"github.com/blinko/backend/internal/database"
)

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	cfg := config.Load()

	username := flag.String("username", os.Getenv("ADMIN_USERNAME"), "admin username")
	displayName := flag.String("name", "Admin", "display name")
	token := flag.String("token", os.Getenv("ADMIN_TOKEN"), "admin token (stored as a bcrypt hash)")
	roles := flag.String("roles", admin.RoleAuditor, "comma separated roles")
	ips := flag.String("allowed-ips", os.Getenv("ADMIN_ALLOWED_IPS"), "comma separated IPs; empty allows any")
	flag.Parse()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if *username == "" {
		*username = "admin"
		log.Printf("Using default admin username: %s", *username)
	}
	if *token == "" {
		*token = "change-me-in-production"
		log.Printf("WARNING: Using default admin token. Set ADMIN_TOKEN in production!")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := admin.UpsertAdminAccount(db, *username, *displayName, *token, splitList(*roles), splitList(*ips)); err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	log.Printf("✓ Admin account created/updated successfully")
	log.Printf("  Username: %s", *username)
	log.Printf("  Display Name: %s", *displayName)
	log.Printf("  Roles: %v", splitList(*roles))
	log.Println("Send X-Admin-User and X-Admin-Token headers to /api/v1/admin/*")
}
