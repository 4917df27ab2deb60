package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/hrygo/appointment-assistant/internal/profile"
	"github.com/hrygo/appointment-assistant/plugin/ai/cache"
	"github.com/hrygo/appointment-assistant/plugin/ai/parser"
	"github.com/hrygo/appointment-assistant/plugin/ai/session"
	apiv1 "github.com/hrygo/appointment-assistant/server/router/api/v1"
	"github.com/hrygo/appointment-assistant/server/service/calendar"
	"github.com/hrygo/appointment-assistant/server/service/conversation"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Conversational appointment scheduling assistant",
	Long: `A scheduling assistant that books, reschedules and cancels
appointments from natural-language requests, enforcing business hours
and resolving conflicts. Configure it with ASSISTANT_* environment
variables.`,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant on the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := profile.FromEnv(version)
		if err != nil {
			return err
		}
		setupLogging(p)

		orchestrator, err := newOrchestrator(p)
		if err != nil {
			return err
		}

		fmt.Println("Hello! I'm your appointment assistant. Type 'quit' to exit.")
		state := conversation.Idle()
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "quit" || line == "exit" {
				fmt.Println("Goodbye!")
				break
			}

			var turns []conversation.Turn
			turns, state = orchestrator.HandleTurn(cmd.Context(), line, state)
			for _, turn := range turns {
				fmt.Println(turn.Text)
			}
		}
		return scanner.Err()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := profile.FromEnv(version)
		if err != nil {
			return err
		}
		setupLogging(p)

		rules, err := p.Rules()
		if err != nil {
			return err
		}
		extractor := newExtractor(p)
		manager := session.NewManager(func() *conversation.Orchestrator {
			store := calendar.NewStore(rules)
			return conversation.NewOrchestrator(store, parser.New(extractor))
		})

		cleanup := session.NewCleanupJob(manager, session.CleanupConfig{
			MaxIdle:         p.SessionMaxIdle,
			CleanupInterval: p.SessionCleanupInterval,
		})
		cleanup.Start(cmd.Context())
		defer cleanup.Stop()

		e := echo.New()
		e.HideBanner = true
		e.Use(middleware.Recover())

		apiv1.NewAPIV1Service(p, manager).Register(e)

		addr := fmt.Sprintf("%s:%d", p.Addr, p.Port)
		go func() {
			slog.Info("server started", "addr", addr, "mode", p.Mode, "version", version)
			if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
				slog.Error("server stopped", "error", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return err
		}
		slog.Info("server shut down")
		return nil
	},
}

// newOrchestrator builds a conversation stack from the profile: configured
// business rules, optional LLM extraction, rule parser fallback.
func newOrchestrator(p *profile.Profile) (*conversation.Orchestrator, error) {
	rules, err := p.Rules()
	if err != nil {
		return nil, err
	}
	store := calendar.NewStore(rules)
	return conversation.NewOrchestrator(store, parser.New(newExtractor(p))), nil
}

// newExtractor returns the LLM extractor, or nil for pure rule parsing.
func newExtractor(p *profile.Profile) parser.Extractor {
	if !p.IsAIEnabled() {
		return nil
	}
	if e := parser.NewOpenAIExtractor(parser.ExtractorConfig{
		APIKey:  p.AIOpenAIAPIKey,
		BaseURL: p.AIOpenAIBaseURL,
		Model:   p.AILLMModel,
		Timeout: p.AITimeout,
	}); e != nil {
		return parser.NewCachedExtractor(e, cache.New(512, 15*time.Minute))
	}
	return nil
}

func setupLogging(p *profile.Profile) {
	level := slog.LevelInfo
	if p.IsDev() {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func main() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
