package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opencivics/civicassist/internal/assistant"
	"github.com/opencivics/civicassist/internal/config"
	"github.com/opencivics/civicassist/internal/db"
	"github.com/opencivics/civicassist/internal/hardware"
	"github.com/opencivics/civicassist/internal/journal"
	"github.com/opencivics/civicassist/internal/model"
	"github.com/opencivics/civicassist/internal/services"
	"github.com/opencivics/civicassist/server/auth"
	"github.com/opencivics/civicassist/server/bootstrap"
	"github.com/opencivics/civicassist/server/handlers"
	"github.com/opencivics/civicassist/server/middleware"
)

var (
	version = "1.0.0"
)

func main() {
	// Load .env file if it exists
	loadEnvFile(".env")

	// Configuration with environment variable support
	port := getEnv("PORT", "8080")
	configPath := getEnv("CONFIG_FILE", config.GetConfigPath())
	tmplDir := getEnv("TEMPLATE_DIR", "")
	seedFile := getEnv("SERVICES_SEED", "")
	adminUser := getEnv("ADMIN_USER", "admin")
	adminPass := getEnv("ADMIN_PASSWORD", "")
	githubClientID := getEnv("GITHUB_CLIENT_ID", "")
	githubClientSecret := getEnv("GITHUB_CLIENT_SECRET", "")
	baseURL := getEnv("BASE_URL", "")

	// Allow command-line flags to override environment variables
	noFetch := false
	flag.StringVar(&port, "port", port, "Server port")
	flag.StringVar(&configPath, "config", configPath, "Config file path")
	flag.StringVar(&tmplDir, "templates", tmplDir, "Templates directory (overrides embedded templates)")
	flag.StringVar(&adminUser, "admin", adminUser, "Admin username")
	flag.StringVar(&adminPass, "password", adminPass, "Admin password (required)")
	flag.BoolVar(&noFetch, "no-fetch", noFetch, "Skip downloading model files from the mirror")
	flag.Parse()

	if adminPass == "" {
		log.Fatal("Error: Admin password is required. Set ADMIN_PASSWORD env var or use --password flag")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "portal.db")
	database, err := db.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	fmt.Printf("CivicAssist v%s\n", version)
	fmt.Printf("Starting server on port %s\n", port)
	fmt.Printf("Data directory: %s\n", cfg.DataDir)
	fmt.Printf("Admin user: %s\n", adminUser)
	fmt.Println()

	searcher := services.NewSearcher()
	resolver := model.NewResolver(cfg.Models, hardware.NewProbe())
	portalAssistant := assistant.New(resolver, nil, cfg.Generation)
	defer portalAssistant.Close()

	var fetcher *model.Fetcher
	if !noFetch && cfg.Models.MirrorURL != "" {
		fetcher = model.NewFetcher(cfg.Models.MirrorURL)
	}

	// The model loads before the server accepts requests, so the first
	// citizen question never races initialization.
	bootstrap.Run(bootstrap.Options{
		DB:        database,
		Catalog:   services.NewCatalog(database),
		Searcher:  searcher,
		Assistant: portalAssistant,
		Fetcher:   fetcher,
		Models:    cfg.Models,
		SeedFile:  seedFile,
	})

	addr := ":" + port
	if baseURL == "" {
		baseURL = "http://localhost" + addr
	}

	authManager := auth.NewManager(adminUser, adminPass)
	if githubClientID != "" && githubClientSecret != "" {
		authManager.EnableGitHub(githubClientID, githubClientSecret, baseURL+"/auth/github/callback")
	}

	handlerConfig := handlers.Config{
		DB:          database,
		Auth:        authManager,
		Assistant:   portalAssistant,
		Search:      searcher,
		TemplateDir: tmplDir,
	}
	if cfg.Journal.Enabled {
		journalPath := cfg.Journal.Path
		if journalPath == "" {
			journalPath = filepath.Join(cfg.DataDir, "interactions.jsonl")
		}
		handlerConfig.Journal = journal.NewWriter(journalPath)
	}

	mux := handlers.New(handlerConfig).Routes()

	// Rate limiter: 60 requests per minute per client
	rateLimiter := middleware.NewRateLimiter(60, 1*time.Minute)

	fmt.Printf("✓ Portal ready at %s\n", baseURL)
	fmt.Println("  - Home: /")
	fmt.Println("  - Services: /services")
	fmt.Println("  - Assistant: /chat (requires login)")
	fmt.Println("  - Dashboard: /dashboard (admin only)")
	fmt.Println("  - Health: /api/health")
	fmt.Println()

	if err := http.ListenAndServe(addr, rateLimiter.Limit(mux)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// loadEnvFile loads environment variables from a .env file
func loadEnvFile(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		// .env file is optional, silently continue if not found
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE format
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		value = strings.Trim(value, "\"'")

		// Set environment variable if not already set
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
