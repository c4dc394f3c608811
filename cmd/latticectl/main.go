// latticectl is the control CLI for the latticelock pattern registry.
package main

import (
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"latticelock/internal/config"
	"latticelock/internal/label"
	"latticelock/internal/logging"
	"latticelock/internal/pattern"
	"latticelock/internal/profile"
	"latticelock/internal/signature"
	"latticelock/internal/store"
)

var (
	configPath = flag.String("config", "", "path to config file")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	switch cmd := flag.Arg(0); cmd {
	case "keygen":
		cmdKeygen()
	case "generate":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: latticectl generate <batch-code> [output.json]")
			os.Exit(1)
		}
		output := ""
		if flag.NArg() >= 3 {
			output = flag.Arg(2)
		}
		cmdGenerate(flag.Arg(1), output)
	case "algorithms":
		cmdAlgorithms()
	case "inks":
		cmdInks()
	case "inspect":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: latticectl inspect <label.json>")
			os.Exit(1)
		}
		cmdInspect(flag.Arg(1))
	case "hash":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: latticectl hash <label.json>")
			os.Exit(1)
		}
		cmdHash(flag.Arg(1))
	case "history":
		cmdHistory()
	case "status":
		cmdStatus()
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `latticectl - Control utility for the latticelock pattern registry

Usage: latticectl [options] <command> [args]

Commands:
  keygen                     Create a signing key at the configured path
  generate <batch> [out]     Generate, sign, and register a pattern
  algorithms                 List available generation algorithms
  inks                       Show the default ink profile
  inspect <label.json>       Print a label's metadata
  hash <label.json>          Recompute a label's pattern hash
  history                    Print recent verification log entries
  status                     Show registry statistics
  help                       Show this help message

Options:
  -config <path>  Path to config file (default: ~/.latticelock/config.toml)`)
}

func loadConfig() *config.Config {
	cfg, _, err := config.LoadOrCreate(*configPath)
	if err != nil {
		fatal("load config: %v", err)
	}
	return cfg
}

func newLogger(cfg *config.Config) *slog.Logger {
	logger, err := logging.New(&logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Component: "latticectl",
	})
	if err != nil {
		fatal("configure logging: %v", err)
	}
	return logger
}

// signingService loads the master key and, when a manufacturer identity
// is configured, derives the per-manufacturer key from it.
func signingService(cfg *config.Config) *signature.Service {
	master, err := signature.LoadKey(cfg.Signing.KeyPath)
	if err != nil {
		fatal("load signing key (run 'latticectl keygen' first): %v", err)
	}

	key := master
	if cfg.Signing.ManufacturerID != "" {
		key, err = signature.DeriveKey(master, cfg.Signing.ManufacturerID)
		if err != nil {
			fatal("derive manufacturer key: %v", err)
		}
	}

	svc, err := signature.New(key)
	if err != nil {
		fatal("init signature service: %v", err)
	}
	return svc
}

func openStore(cfg *config.Config) *store.Store {
	if cfg.Storage.Secure {
		master, err := signature.LoadKey(cfg.Signing.KeyPath)
		if err != nil {
			fatal("load signing key: %v", err)
		}
		integrityKey, err := signature.DeriveKey(master, "registry-integrity")
		if err != nil {
			fatal("derive integrity key: %v", err)
		}
		s, err := store.OpenSecure(cfg.Storage.Path, integrityKey)
		if err != nil {
			fatal("open registry: %v", err)
		}
		return s
	}

	s, err := store.Open(cfg.Storage.Path)
	if err != nil {
		fatal("open registry: %v", err)
	}
	return s
}

func cmdKeygen() {
	cfg := loadConfig()

	if _, err := os.Stat(cfg.Signing.KeyPath); err == nil {
		fatal("key already exists at %s", cfg.Signing.KeyPath)
	}

	key := make([]byte, signature.MinKeySize)
	if _, err := rand.Read(key); err != nil {
		fatal("generate key: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Signing.KeyPath), 0700); err != nil {
		fatal("create key directory: %v", err)
	}
	if err := os.WriteFile(cfg.Signing.KeyPath, key, 0600); err != nil {
		fatal("write key: %v", err)
	}

	fmt.Printf("Signing key written to %s\n", cfg.Signing.KeyPath)
}

func cmdGenerate(batchCode, output string) {
	cfg := loadConfig()
	logger := newLogger(cfg)

	strat, err := pattern.Lookup(cfg.Pattern.Algorithm)
	if err != nil {
		fatal("%v", err)
	}

	size := cfg.Pattern.GridSize
	pat, err := strat.Generate(batchCode, size*size, cfg.Pattern.NumInks)
	if err != nil {
		fatal("generate pattern: %v", err)
	}

	md := pattern.NewMetadata(batchCode, pat, size, cfg.Pattern.NumInks,
		cfg.Signing.ManufacturerID, strat.Name(), time.Now())
	svc := signingService(cfg)
	sp := &label.SignedPattern{
		Pattern:   pat,
		Signature: svc.Sign(md.Canonical()),
		Metadata:  md,
	}

	s := openStore(cfg)
	defer s.Close()

	rec := &store.PatternRecord{
		BatchCode:      md.BatchCode,
		Algorithm:      md.Algorithm,
		GridSize:       md.GridSize,
		NumInks:        md.NumInks,
		Pattern:        pat,
		PatternHash:    md.PatternHash,
		ManufacturerID: md.ManufacturerID,
		Signature:      sp.Signature,
	}
	if err := s.InsertPattern(rec); err != nil {
		fatal("register pattern: %v", err)
	}
	logger.Info("pattern registered",
		"uuid", rec.UUID, "batch", batchCode, "algorithm", md.Algorithm, "gridSize", size)

	if output == "" {
		output = batchCode + ".label.json"
	}
	if err := label.Save(sp, output); err != nil {
		fatal("write label: %v", err)
	}

	fmt.Printf("Pattern %s registered\n", rec.UUID)
	fmt.Printf("  Batch:     %s\n", batchCode)
	fmt.Printf("  Algorithm: %s (%dx%d grid, %d inks)\n", md.Algorithm, size, size, md.NumInks)
	fmt.Printf("  Hash:      %s\n", md.PatternHash)
	fmt.Printf("  Label:     %s\n", output)
}

func cmdAlgorithms() {
	fmt.Println("Available algorithms:")
	for _, name := range pattern.Names() {
		marker := " "
		if name == pattern.DefaultAlgorithm {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, name)
	}
}

func cmdInks() {
	p := profile.Default()
	fmt.Printf("Ink profile: %s\n", p.Name)
	for _, ink := range p.Inks {
		fmt.Printf("  %d  %-22s rgb(%d, %d, %d)\n", ink.ID, ink.Name, ink.R, ink.G, ink.B)
	}
}

func cmdInspect(path string) {
	sp, err := label.Load(path)
	if err != nil {
		fatal("load label: %v", err)
	}

	data, err := json.MarshalIndent(sp.Metadata, "", "  ")
	if err != nil {
		fatal("encode metadata: %v", err)
	}
	fmt.Println(string(data))
}

func cmdHash(path string) {
	sp, err := label.Load(path)
	if err != nil {
		fatal("load label: %v", err)
	}

	recomputed := pattern.Hash(sp.Pattern)
	fmt.Printf("Signed hash:     %s\n", sp.Metadata.PatternHash)
	fmt.Printf("Recomputed hash: %s\n", recomputed)
	if recomputed == sp.Metadata.PatternHash {
		fmt.Println("Hashes match")
	} else {
		fmt.Println("HASH MISMATCH - pattern was altered after signing")
	}
}

func cmdHistory() {
	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	entries, err := s.RecentVerifications(50, 0)
	if err != nil {
		fatal("read verification log: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No verifications recorded")
		return
	}

	for _, e := range entries {
		detail := ""
		if e.Detail != "" {
			detail = "  (" + e.Detail + ")"
		}
		fmt.Printf("%s  %-11s %s%s\n",
			e.ScannedAt.Format(time.RFC3339), e.Status, shortHash(e.PatternHash), detail)
	}
}

func cmdStatus() {
	cfg := loadConfig()

	fmt.Println("=== latticelock Registry ===")
	fmt.Println()

	if _, err := os.Stat(cfg.Storage.Path); os.IsNotExist(err) {
		fmt.Println("No registry database found")
		return
	}

	s := openStore(cfg)
	defer s.Close()

	stats, err := s.GetStats()
	if err != nil {
		fatal("read stats: %v", err)
	}

	fmt.Printf("Database:       %s\n", cfg.Storage.Path)
	fmt.Printf("Patterns:       %d\n", stats.TotalPatterns)
	fmt.Printf("Batch codes:    %d\n", stats.UniqueBatchCodes)
	fmt.Printf("Algorithms:     %d\n", stats.UniqueAlgorithms)
	fmt.Printf("Verifications:  %d\n", stats.Verifications)
}

func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16] + "..."
	}
	return h
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
