package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/shopspring/decimal"

	"github.com/kaiyuen/receipt-splitter/internal/extract"
	"github.com/kaiyuen/receipt-splitter/internal/order"
	"github.com/kaiyuen/receipt-splitter/internal/parse"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("receipt-splitter")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "receipt-splitter.db", "Database file path")
		storagePath  = fs.StringLong("storage", "./receipts", "Storage directory path")
		profileName  = fs.StringLong("profile", "sainsburys", "Retailer profile for receipt parsing")
		headerWindow = fs.IntLong("header-window", parse.DefaultHeaderWindow, "Number of leading lines scanned for the order id and date")
		tolerance    = fs.StringLong("price-tolerance", "0.01", "Absolute tolerance when reconciling totals")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_SPLITTER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Resolve the retailer profile and parser options
	profile, err := parse.ProfileFor(*profileName)
	if err != nil {
		slog.Error("Unknown retailer profile", "profile", *profileName, "known", parse.ProfileNames())
		os.Exit(1)
	}
	priceTolerance, err := decimal.NewFromString(*tolerance)
	if err != nil {
		slog.Error("Invalid price tolerance", "value", *tolerance, "error", err)
		os.Exit(1)
	}
	parser := parse.NewParser(profile, parse.Options{
		HeaderWindow: *headerWindow,
		Tolerance:    priceTolerance,
	})

	// Initialize database
	slog.Info("Initializing database...")
	db, err := order.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := order.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize service
	orderService := order.NewService(db, extract.NewPDFExtractor(), parser, store)

	// Initialize server
	basicAuth := order.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := order.NewServer(orderService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "profile", profile.Name)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
