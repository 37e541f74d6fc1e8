package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/themislegal/themis/internal/agent"
	"github.com/themislegal/themis/internal/audit"
	"github.com/themislegal/themis/internal/catalog"
	"github.com/themislegal/themis/internal/config"
	"github.com/themislegal/themis/internal/db"
	"github.com/themislegal/themis/internal/memory"
	"github.com/themislegal/themis/internal/server"
	"github.com/themislegal/themis/internal/synthesis"
)

var (
	servePort     int
	serveAllowAll bool
	serveNoMemory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (REST API + chat WebSocket)",
	Long: `Starts the research assistant as an HTTP server. The server exposes
session management, the tool catalog, exports, the audit log and a
WebSocket chat endpoint at /ws/chat.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "allow all CORS origins (dev mode)")
	serveCmd.Flags().BoolVar(&serveNoMemory, "no-memory", false, "disable the semantic memory")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if serveAllowAll {
		cfg.Server.AllowAll = true
	}

	reg := catalog.Builtin()
	dispatcher, err := createDispatcher(cfg, reg)
	if err != nil {
		return err
	}

	database, err := db.Open(filepath.Join(cfg.DataDir, "themis.db"))
	if err != nil {
		return fmt.Errorf("opening audit database: %w", err)
	}
	defer database.Close()
	auditStore := audit.NewStore(database)
	dispatcher.SetRecorder(auditStore.Recorder())

	if cfg.AuditRetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -cfg.AuditRetentionDays)
		if n, err := auditStore.DeleteBefore(context.Background(), cutoff); err != nil {
			log.Printf("audit retention sweep failed: %v", err)
		} else if n > 0 {
			log.Printf("audit retention: removed %d entries older than %d days", n, cfg.AuditRetentionDays)
		}
	}

	store, err := createSessionStore(cfg)
	if err != nil {
		return err
	}

	mem := openMemory(cfg)

	ag, err := createAgent(cfg, reg, dispatcher, store, memOrNil(mem), auditStore, nil)
	if err != nil {
		return err
	}
	gen := createGenerator(cfg)

	srv := server.New(server.Config{
		Port:     cfg.Server.Port,
		AllowAll: cfg.Server.AllowAll,
	}, store, ag, reg, gen, auditStore, mem)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	fmt.Fprintf(os.Stderr, "themis server listening on http://localhost:%d\n", cfg.Server.Port)
	fmt.Fprintf(os.Stderr, "  chat websocket: ws://localhost:%d/ws/chat\n", cfg.Server.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	fmt.Fprintln(os.Stderr, "shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	persistMemory(cfg, mem)
	return nil
}

// openMemory builds the semantic memory, loading any persisted state.
// Failures are reported and the server runs without memory.
func openMemory(cfg *config.Config) *memory.Store {
	if serveNoMemory {
		return nil
	}
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		log.Printf("memory disabled: %v", err)
		return nil
	}
	mem, err := memory.NewStore(embedder)
	if err != nil {
		log.Printf("memory disabled: %v", err)
		return nil
	}
	if err := mem.Load(cfg.DataDir); err != nil {
		log.Printf("could not load persisted memory: %v", err)
	}
	return mem
}

func persistMemory(cfg *config.Config, mem *memory.Store) {
	if mem == nil {
		return
	}
	if err := mem.Persist(cfg.DataDir); err != nil {
		log.Printf("persisting memory: %v", err)
	}
}

// memOrNil avoids wrapping a nil *memory.Store in a non-nil interface.
func memOrNil(mem *memory.Store) agent.Memory {
	if mem == nil {
		return nil
	}
	return mem
}

func createGenerator(cfg *config.Config) *synthesis.Generator {
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		log.Printf("synthesis disabled: %v", err)
		return nil
	}
	prompts, err := config.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		log.Printf("synthesis disabled: %v", err)
		return nil
	}
	model := cfg.SynthesisModel
	if model == "" {
		model = cfg.Model
	}
	return synthesis.NewGenerator(provider, model, prompts)
}
