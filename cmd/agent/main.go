package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"simrs-agent/internal/adapter/llm"
	"simrs-agent/internal/domain"
	"simrs-agent/internal/infra/config"
	"simrs-agent/internal/infra/logger"
	"simrs-agent/internal/infra/tracer"
	"simrs-agent/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	var provider domain.LLMProvider
	routerMock := cfg.LLM.RouterMock()
	dispatcherMock := cfg.LLM.DispatcherMock()
	if !routerMock || !dispatcherMock {
		gemini := llm.NewGeminiProvider(cfg.LLM, log)
		provider = llm.NewCircuitBreakerProvider(gemini, cfg.LLM.Breaker, log)
		log.Info("backend enabled", "provider", provider.Name(), "model", cfg.LLM.Model)
	} else {
		log.Info("no credential configured, running fully offline")
	}

	router := usecase.NewIntentRouter(provider, routerMock, log)
	dispatcher := usecase.NewDispatcher(provider, dispatcherMock, cfg.Orchestrator.HistoryLimit, log)
	orch := usecase.NewOrchestrator(router, dispatcher, cfg.Orchestrator.IdleResetDelay, log)

	return repl(ctx, orch)
}

// repl runs the line-oriented conversation loop until EOF, /quit, or signal.
func repl(ctx context.Context, orch *usecase.Orchestrator) error {
	out := os.Stdout
	printTurn(out, orch.Ledger()[0])
	fmt.Fprintln(out, `Ketik pesan Anda, atau /help untuk daftar perintah.`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		default:
		}

		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := command(ctx, out, orch, line); quit {
				return nil
			}
			continue
		}

		submit(ctx, out, orch, line)
	}
}

// command handles a /-prefixed REPL command. Returns true on /quit.
func command(ctx context.Context, out *os.File, orch *usecase.Orchestrator, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/reset":
		orch.Reset()
		fmt.Fprintln(out, "--- percakapan direset ---")
		printTurn(out, orch.Ledger()[0])
	case "/agents":
		for _, id := range domain.DispatchableAgents {
			p, _ := domain.PersonaFor(id)
			fmt.Fprintf(out, "%-13s %s\n", id, p.Description)
		}
	case "/scenarios":
		for i, s := range domain.Scenarios {
			fmt.Fprintf(out, "%d. %s - %s\n   %q\n", i+1, s.Title, s.Description, s.Prompt)
		}
	case "/scenario":
		if len(fields) < 2 {
			fmt.Fprintln(out, "pemakaian: /scenario <nomor>")
			return false
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > len(domain.Scenarios) {
			fmt.Fprintf(out, "skenario tidak dikenal: %s\n", fields[1])
			return false
		}
		s := domain.Scenarios[n-1]
		fmt.Fprintf(out, "[%s] %s\n", s.Title, s.Prompt)
		submit(ctx, out, orch, s.Prompt)
	case "/history":
		for _, t := range orch.Ledger() {
			printTurn(out, t)
		}
	case "/help":
		fmt.Fprintln(out, `/agents     daftar agen yang tersedia
/scenarios  daftar skenario cepat
/scenario N jalankan skenario ke-N
/history    tampilkan seluruh percakapan
/reset      mulai percakapan baru
/quit       keluar`)
	default:
		fmt.Fprintf(out, "perintah tidak dikenal: %s (/help untuk bantuan)\n", fields[0])
	}
	return false
}

func submit(ctx context.Context, out *os.File, orch *usecase.Orchestrator, text string) {
	before := len(orch.Ledger())
	if _, err := orch.Submit(ctx, text); err != nil {
		fmt.Fprintf(out, "input tidak valid: %v\n", err)
		return
	}
	// Print everything the turn appended after the user's own message.
	for _, t := range orch.Ledger()[before+1:] {
		printTurn(out, t)
	}
}

func printTurn(out *os.File, t domain.Turn) {
	switch t.Role {
	case domain.RoleNotice:
		fmt.Fprintf(out, "  * %s\n", t.Content)
	case domain.RoleAgent:
		label := string(t.Agent)
		if label == "" {
			label = "AGENT"
		}
		fmt.Fprintf(out, "[%s] %s\n", label, t.Content)
		if t.Rationale != "" {
			fmt.Fprintf(out, "  (alasan: %s)\n", t.Rationale)
		}
	default:
		fmt.Fprintf(out, "<anda> %s\n", t.Content)
	}
}
