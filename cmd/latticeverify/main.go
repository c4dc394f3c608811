// Command latticeverify is a standalone tool for verifying latticelock
// labels.
//
// It needs only the signing key and the label file, no registry database
// or network, which makes it suitable for:
// - Offline verification at the point of sale
// - Third-party audits
// - Automated verification pipelines
//
// Usage:
//
//	latticeverify [flags] <label.json>
//
// Examples:
//
//	# Basic verification
//	latticeverify -key signing.key label.json
//
//	# JSON output for scripting
//	latticeverify -key signing.key -format json label.json
//
//	# Record the outcome in the local registry's audit log
//	latticeverify -key signing.key -log label.json
//
// Exit codes: 0 authentic, 1 not authentic, 2 usage or I/O error.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"latticelock/internal/config"
	"latticelock/internal/pattern"
	"latticelock/internal/signature"
	"latticelock/internal/store"
	"latticelock/internal/verify"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	keyPath := flag.String("key", "", "path to the signing key (default: from config)")
	manufacturer := flag.String("manufacturer", "", "manufacturer ID for key derivation (default: from config)")
	formatStr := flag.String("format", "text", "output format: text, json")
	quiet := flag.Bool("quiet", false, "only set the exit code, print nothing")
	logOutcome := flag.Bool("log", false, "record the outcome in the registry audit log")
	configPath := flag.String("config", "", "path to config file")
	versionFlag := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "latticeverify - Verify latticelock labels\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <label.json>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nStatuses:\n")
		fmt.Fprintf(os.Stderr, "  authentic    - Signature, hash, and regeneration all pass\n")
		fmt.Fprintf(os.Stderr, "  counterfeit  - Signature does not match the metadata\n")
		fmt.Fprintf(os.Stderr, "  tampered     - Pattern was altered after signing\n")
		fmt.Fprintf(os.Stderr, "  invalid      - Label is malformed or internally inconsistent\n")
	}
	flag.Parse()

	if *versionFlag {
		fmt.Printf("latticeverify %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: label file required")
		flag.Usage()
		os.Exit(2)
	}

	if *formatStr != "text" && *formatStr != "json" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", *formatStr)
		os.Exit(2)
	}

	cfg, _, err := config.LoadOrCreate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(2)
	}
	if *keyPath == "" {
		*keyPath = cfg.Signing.KeyPath
	}
	if *manufacturer == "" {
		*manufacturer = cfg.Signing.ManufacturerID
	}

	svc, err := buildService(*keyPath, *manufacturer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	raw, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: read label: %v\n", err)
		os.Exit(2)
	}

	res, err := verify.NewEngine(svc).VerifyRaw(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if *logOutcome {
		if err := recordOutcome(cfg, raw, res); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: audit log: %v\n", err)
		}
	}

	if !*quiet {
		printResult(res, *formatStr)
	}

	if res.Authentic() {
		os.Exit(0)
	}
	os.Exit(1)
}

func buildService(keyPath, manufacturer string) (*signature.Service, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("signing key required (-key)")
	}
	key, err := signature.LoadKey(keyPath)
	if err != nil {
		return nil, err
	}
	if manufacturer != "" {
		key, err = signature.DeriveKey(key, manufacturer)
		if err != nil {
			return nil, err
		}
	}
	return signature.New(key)
}

func recordOutcome(cfg *config.Config, raw []byte, res *verify.Result) error {
	s, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.LogVerification(&store.VerificationEntry{
		PatternHash: scannedHash(raw),
		Status:      string(res.Status),
		Detail:      res.Detail,
		ScannedAt:   res.VerifiedAt,
	})
}

// scannedHash extracts a pattern hash for the audit log without trusting
// the label's own claim: hash whatever pattern the label presents.
func scannedHash(raw []byte) string {
	var doc struct {
		Pattern []int `json:"pattern"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Pattern == nil {
		return ""
	}
	return pattern.Hash(doc.Pattern)
}

func printResult(res *verify.Result, format string) {
	if format == "json" {
		data, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(data))
		return
	}

	if res.Authentic() {
		fmt.Println("AUTHENTIC")
		fmt.Printf("  Batch:        %s\n", res.BatchCode)
		if res.ManufacturerID != "" {
			fmt.Printf("  Manufacturer: %s\n", res.ManufacturerID)
		}
		if !res.IssuedAt.IsZero() {
			fmt.Printf("  Issued:       %s\n", res.IssuedAt.Format("2006-01-02 15:04:05 MST"))
		}
		return
	}

	fmt.Printf("%s\n", titleStatus(res.Status))
	if res.Detail != "" {
		fmt.Printf("  %s\n", res.Detail)
	}
}

func titleStatus(s verify.Status) string {
	switch s {
	case verify.StatusCounterfeit:
		return "COUNTERFEIT"
	case verify.StatusTampered:
		return "TAMPERED"
	default:
		return "INVALID"
	}
}
