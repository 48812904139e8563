package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"iaai-scout/config"
	"iaai-scout/db"
	"iaai-scout/models"
	"iaai-scout/runner"
	"iaai-scout/scraper"
	"iaai-scout/sheets"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	botMode := flag.Bool("bot", false, "Run as a Telegram bot instead of a one-shot CLI run")
	spreadsheetURL := flag.String("spreadsheet", "", "Google Sheets URL (overrides config)")
	credentialsPath := flag.String("credentials", "", "Path to Google service account credentials JSON file (or use GOOGLE_SHEETS_CREDENTIALS env var)")
	flag.Parse()

	cfg := loadConfig(*configPath)
	if *spreadsheetURL != "" {
		cfg.Sheets.SpreadsheetURL = *spreadsheetURL
	}
	if *credentialsPath != "" {
		cfg.Sheets.CredentialsPath = *credentialsPath
	}

	if *botMode {
		runTelegramBot(cfg)
		return
	}

	runCLIMode(cfg)
}

// loadConfig loads configuration from file or returns defaults
func loadConfig(configPath string) *config.Config {
	if _, err := os.Stat(configPath); err != nil {
		log.Println("Config file not found. Using default configuration.")
		return config.GetDefaultConfig()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config file: %v. Using defaults.\n", err)
		return config.GetDefaultConfig()
	}
	return cfg
}

// runCLIMode executes a single run and prints the summary
func runCLIMode(cfg *config.Config) {
	startedAt := time.Now()
	summary, err := executeRun(cfg)
	recordRun(cfg, startedAt, summary, err)

	if err != nil {
		log.Fatalf("Run failed after %d added, %d updated: %v\n", summary.Added, summary.Updated, err)
	}

	fmt.Printf("Added %d new rows, updated %d of %d eligible.\n",
		summary.Added, summary.Updated, summary.TotalEligible)
}

// executeRun acquires the store and scraper for the duration of one run
// and releases them afterwards.
func executeRun(cfg *config.Config) (models.RunSummary, error) {
	spreadsheetID := sheets.ExtractSpreadsheetID(cfg.Sheets.SpreadsheetURL)
	if spreadsheetID == "" {
		return models.RunSummary{}, fmt.Errorf("could not extract spreadsheet ID from URL: %s", cfg.Sheets.SpreadsheetURL)
	}

	store, err := sheets.NewStore(spreadsheetID, cfg.Sheets.CredentialsPath)
	if err != nil {
		return models.RunSummary{}, fmt.Errorf("failed to initialize sheets store: %w", err)
	}
	if err := store.EnsureHeader(); err != nil {
		return models.RunSummary{}, err
	}

	scr, err := newScraper(cfg)
	if err != nil {
		return models.RunSummary{}, fmt.Errorf("failed to create scraper: %w", err)
	}
	defer func() {
		if err := scr.Close(); err != nil {
			log.Printf("Warning: Failed to close scraper: %v\n", err)
		}
	}()

	r, err := runner.NewRunner(cfg, scr, store)
	if err != nil {
		return models.RunSummary{}, err
	}

	return r.Run()
}

// newScraper picks the engine configured under search.engine.
func newScraper(cfg *config.Config) (scraper.Scraper, error) {
	switch cfg.Search.Engine {
	case "colly":
		return scraper.NewCollyScraper(), nil
	case "", "rod":
		return scraper.NewRodScraper()
	default:
		return nil, fmt.Errorf("unknown scraper engine %q (want \"rod\" or \"colly\")", cfg.Search.Engine)
	}
}

// recordRun saves run history when DATABASE_URL is configured. History
// is best effort in CLI mode; a missing database is not an error.
func recordRun(cfg *config.Config, startedAt time.Time, summary models.RunSummary, runErr error) {
	if os.Getenv("DATABASE_URL") == "" {
		return
	}

	database, err := db.NewDB()
	if err != nil {
		log.Printf("Warning: Failed to connect to run history database: %v\n", err)
		return
	}
	defer database.Close()

	if err := database.SaveRun(startedAt, len(cfg.Search.Queries), summary, runErr); err != nil {
		log.Printf("Warning: Failed to save run history: %v\n", err)
	}
}

// runTelegramBot runs the scout as a Telegram bot: /run triggers a pass
// and reports the summary, /status shows recent runs.
func runTelegramBot(cfg *config.Config) {
	botToken := os.Getenv("IAAI_TG_KEY")
	if botToken == "" {
		log.Fatalf("Error: IAAI_TG_KEY environment variable is not set")
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v\n", err)
	}
	log.Printf("Authorized on account %s\n", bot.Self.UserName)

	database, err := db.NewDB()
	if err != nil {
		log.Fatalf("Error: Failed to initialize database: %v\n", err)
	}
	defer database.Close()
	log.Println("Database initialized successfully")

	allowed := make(map[int64]bool)
	for _, id := range cfg.Telegram.AllowedUserIDs {
		allowed[id] = true
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updateConfig.Offset = -1

	var running atomic.Bool

	updates := bot.GetUpdatesChan(updateConfig)
	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			continue
		}

		userID := update.Message.From.ID
		chatID := update.Message.Chat.ID
		command := update.Message.Command()

		if command != "start" && !allowed[userID] {
			log.Printf("Unauthorized user attempted to use command: %d\n", userID)
			bot.Send(tgbotapi.NewMessage(chatID, "Sorry, you are not authorized to use this bot."))
			continue
		}

		switch command {
		case "start":
			if !allowed[userID] {
				log.Printf("Unauthorized user attempted to use bot: %d\n", userID)
				bot.Send(tgbotapi.NewMessage(chatID, "Sorry, you are not authorized to use this bot."))
				continue
			}
			welcome := fmt.Sprintf("Welcome! /run scrapes %d queries and reconciles the results into the spreadsheet.\n\n📊 Spreadsheet: %s",
				len(cfg.Search.Queries), cfg.Sheets.SpreadsheetURL)
			bot.Send(tgbotapi.NewMessage(chatID, welcome))
		case "help":
			helpText := "Commands:\n/start - Start the bot\n/help - Show this help\n/run - Execute a scrape and reconcile pass\n/status - Show recent runs"
			bot.Send(tgbotapi.NewMessage(chatID, helpText))
		case "run":
			// The spreadsheet index is read once per run, so two runs
			// must never overlap
			if !running.CompareAndSwap(false, true) {
				bot.Send(tgbotapi.NewMessage(chatID, "⏳ A run is already in progress."))
				continue
			}

			bot.Send(tgbotapi.NewMessage(chatID, "🔄 Run started..."))
			go func() {
				defer running.Store(false)

				startedAt := time.Now()
				summary, err := executeRun(cfg)
				if saveErr := database.SaveRun(startedAt, len(cfg.Search.Queries), summary, err); saveErr != nil {
					log.Printf("Warning: Failed to save run history: %v\n", saveErr)
				}

				if err != nil {
					log.Printf("Run failed: %v\n", err)
					bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf(
						"❌ Run failed after %d added, %d updated: %v", summary.Added, summary.Updated, err)))
					return
				}

				bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf(
					"✅ Added %d new rows, updated %d of %d eligible.",
					summary.Added, summary.Updated, summary.TotalEligible)))
			}()
		case "status":
			runs, err := database.RecentRuns(5)
			if err != nil {
				bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Error loading run history: %v", err)))
				continue
			}
			if len(runs) == 0 {
				bot.Send(tgbotapi.NewMessage(chatID, "No runs recorded yet."))
				continue
			}
			bot.Send(tgbotapi.NewMessage(chatID, formatRuns(runs)))
		default:
			bot.Send(tgbotapi.NewMessage(chatID, "Unknown command. Use /help for available commands."))
		}
	}
}

// formatRuns formats run history rows for a Telegram message
func formatRuns(runs []db.Run) string {
	var sb strings.Builder
	sb.WriteString("Recent runs:\n\n")

	for _, r := range runs {
		icon := "✅"
		if r.Status == "failed" {
			icon = "❌"
		}
		sb.WriteString(fmt.Sprintf("%s %s — %d added, %d updated of %d eligible\n",
			icon, r.StartedAt.Format("2006-01-02 15:04"), r.Added, r.Updated, r.TotalEligible))
		if r.LastError.Valid {
			sb.WriteString(fmt.Sprintf("   error: %s\n", r.LastError.String))
		}
	}

	return sb.String()
}
