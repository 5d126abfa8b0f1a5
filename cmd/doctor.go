package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/hardhat/internal/config"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("hardhat doctor")
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Credentials:")
	checkCredential("Model ("+config.EnvModelKey+")", cfg.Provider.APIKey)
	checkCredential("Search ("+config.EnvSearchKey+")", cfg.Search.SerperAPIKey)

	fmt.Println()
	fmt.Println("  Capabilities:")
	if err := cfg.RequireModelCredential(); err != nil {
		fmt.Println("    Chat:      UNAVAILABLE (no model credential)")
	} else {
		fmt.Printf("    Chat:      OK (%s via %s)\n", cfg.Provider.Model, cfg.Provider.APIBase)
	}
	switch {
	case cfg.Search.SerperAPIKey != "":
		fmt.Println("    Retrieval: OK (Serper, DuckDuckGo fallback)")
	case cfg.Search.DDGFallback:
		fmt.Println("    Retrieval: DEGRADED (DuckDuckGo scrape only)")
	default:
		fmt.Println("    Retrieval: UNAVAILABLE (all queries answered without research)")
	}
	if cfg.Tracing.Endpoint != "" {
		fmt.Printf("    Tracing:   %s (%s)\n", cfg.Tracing.Endpoint, cfg.Tracing.Protocol)
	} else {
		fmt.Println("    Tracing:   disabled")
	}

	if cfg.PersonasPath != "" {
		fmt.Println()
		fmt.Printf("  Personas: %s", cfg.PersonasPath)
		if _, err := os.Stat(cfg.PersonasPath); err != nil {
			fmt.Println(" (NOT FOUND, using built-ins)")
		} else {
			fmt.Println(" (OK)")
		}
	}

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkCredential(name, key string) {
	if key == "" {
		fmt.Printf("    %-28s (not configured)\n", name+":")
		return
	}
	masked := key
	if len(key) > 8 {
		masked = key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
	}
	fmt.Printf("    %-28s %s\n", name+":", masked)
}
