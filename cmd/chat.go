package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/hardhat/internal/agent"
	"github.com/nextlevelbuilder/hardhat/internal/config"
	"github.com/nextlevelbuilder/hardhat/internal/providers"
	"github.com/nextlevelbuilder/hardhat/internal/tools"
	"github.com/nextlevelbuilder/hardhat/internal/tracing"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 2)
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	replyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func chatCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the construction assistant",
		Long: `Chat with the construction assistant interactively or send a
one-shot message.

Examples:
  hardhat chat                                   # Interactive REPL
  hardhat chat -m "What is the cost of rebar?"   # One-shot message`,
		Run: func(cmd *cobra.Command, args []string) {
			runChat(message)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "one-shot message (omit for interactive mode)")
	return cmd
}

func runChat(message string) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.RequireModelCredential(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	tracer, shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdownTracing(sctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: trace exporter shutdown: %v\n", err)
		}
	}()

	orch, err := buildOrchestrator(cfg, tracer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if message != "" {
		fmt.Println(orch.GenerateResponse(ctx, message))
		return
	}

	runREPL(ctx, cfg, orch)
}

func buildOrchestrator(cfg *config.Config, tracer trace.Tracer) (*agent.Orchestrator, error) {
	personas, err := agent.LoadPersonas(cfg.PersonasPath)
	if err != nil {
		return nil, err
	}

	provider := providers.NewOpenRouterProvider(cfg.Provider.APIKey, cfg.Provider.APIBase, cfg.Provider.Model)

	// nil when no backend can be configured: retrieval degrades to Direct.
	var search agent.Searcher
	if tool := tools.NewWebSearchTool(tools.WebSearchConfig{
		SerperAPIKey:  cfg.Search.SerperAPIKey,
		DDGFallback:   cfg.Search.DDGFallback,
		MaxResults:    cfg.Search.MaxResults,
		CacheTTL:      time.Duration(cfg.Search.CacheTTLMin) * time.Minute,
		RatePerMinute: cfg.Search.RatePerMinute,
		Burst:         cfg.Search.Burst,
	}); tool != nil {
		search = tool
	}

	return agent.New(agent.Options{
		Provider:          provider,
		Search:            search,
		Personas:          personas,
		DomainKeywords:    cfg.Gate.DomainKeywords,
		RetrievalKeywords: cfg.Gate.RetrievalKeywords,
		WindowSize:        cfg.Memory.WindowSize,
		Model:             cfg.Provider.Model,
		Temperature:       *cfg.Provider.Temperature,
		MaxTokens:         cfg.Provider.MaxTokens,
		MaxPromptTokens:   cfg.Provider.MaxPromptTokens,
		Tracer:            tracer,
	}), nil
}

func runREPL(ctx context.Context, cfg *config.Config, orch *agent.Orchestrator) {
	banner := fmt.Sprintf("hardhat — construction assistant\nmodel: %s", cfg.Provider.Model)
	fmt.Fprintln(os.Stderr, bannerStyle.Render(banner))
	if !orch.RetrievalAvailable() {
		fmt.Fprintln(os.Stderr, noteStyle.Render("web search unavailable — answering from model knowledge only"))
	}
	fmt.Fprintln(os.Stderr, noteStyle.Render(`Type "/history" to show memory, "/clear" to reset, "/quit" to exit`))
	fmt.Fprintln(os.Stderr)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "\nGoodbye!")
			return
		default:
		}

		fmt.Fprint(os.Stderr, promptStyle.Render("You: "))
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch input {
		case "/quit", "/exit", "exit", "quit":
			fmt.Fprintln(os.Stderr, "Goodbye!")
			return
		case "/history":
			fmt.Fprintln(os.Stderr, noteStyle.Render(orch.History()))
			continue
		case "/clear":
			orch.Reset()
			fmt.Fprintln(os.Stderr, noteStyle.Render("Conversation cleared."))
			continue
		}

		resp := orch.GenerateResponse(ctx, input)
		if resp == "" {
			fmt.Fprintln(os.Stderr, errStyle.Render("(no response)"))
			continue
		}
		fmt.Printf("\n%s\n\n", replyStyle.Render(resp))
	}
}
