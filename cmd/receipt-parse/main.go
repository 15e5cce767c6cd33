package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/shopspring/decimal"

	"github.com/kaiyuen/receipt-splitter/internal/extract"
	"github.com/kaiyuen/receipt-splitter/internal/parse"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// receipt-parse runs a single receipt PDF through extraction and parsing and
// prints the result as JSON. Useful for checking a receipt before uploading
// it, or for debugging a retailer profile against a new PDF layout.
func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("receipt-parse")
	var (
		profileName  = fs.StringLong("profile", "sainsburys", "Retailer profile to parse with")
		headerWindow = fs.IntLong("header-window", parse.DefaultHeaderWindow, "Number of leading lines scanned for the receipt header")
		tolerance    = fs.StringLong("price-tolerance", "0.01", "Allowed absolute difference when reconciling totals")
		compact      = fs.BoolLong("compact", "Print compact JSON instead of indented")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_SPLITTER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	args := fs.GetArgs()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: receipt-parse [flags] <receipt.pdf>\n\n%s\n", ffhelp.Flags(fs))
		os.Exit(1)
	}

	profile, err := parse.ProfileFor(*profileName)
	if err != nil {
		slog.Error("Unknown profile", "profile", *profileName, "known", parse.ProfileNames())
		os.Exit(1)
	}

	tol, err := decimal.NewFromString(*tolerance)
	if err != nil {
		slog.Error("Invalid price tolerance", "value", *tolerance, "error", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		slog.Error("Failed to read receipt", "path", args[0], "error", err)
		os.Exit(1)
	}

	lines, err := extract.NewPDFExtractor().Lines(data)
	if err != nil {
		slog.Error("Failed to extract text", "path", args[0], "error", err)
		os.Exit(1)
	}

	parser := parse.NewParser(profile, parse.Options{
		HeaderWindow: *headerWindow,
		Tolerance:    tol,
	})
	parsed, err := parser.Parse(lines)
	if err != nil {
		slog.Error("Failed to parse receipt", "path", args[0], "error", err)
		os.Exit(1)
	}

	for _, diag := range parsed.Diagnostics {
		slog.Warn("Receipt diagnostic", "code", diag.Code, "line", diag.Line, "message", diag.Message)
	}

	enc := json.NewEncoder(os.Stdout)
	if !*compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(parsed); err != nil {
		slog.Error("Failed to encode result", "error", err)
		os.Exit(1)
	}
}
