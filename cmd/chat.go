package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/themislegal/themis/internal/agent"
	"github.com/themislegal/themis/internal/catalog"
	"github.com/themislegal/themis/internal/session"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the legal research assistant in the terminal",
	Long: `Interactive chat loop. Each answer is backed by live Légifrance
lookups and the consulted texts accumulate in the session timeline.
Resume an earlier session with --session.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "session ID to resume")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg := catalog.Builtin()
	dispatcher, err := createDispatcher(cfg, reg)
	if err != nil {
		return err
	}
	store, err := createSessionStore(cfg)
	if err != nil {
		return err
	}

	sess, err := resumeOrCreate(store, chatSessionID)
	if err != nil {
		return err
	}

	ag, err := createAgent(cfg, reg, dispatcher, store, nil, nil, func(s agent.State) {
		if verbose {
			fmt.Fprintf(os.Stderr, "  [%s]\n", s)
		}
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Session %s — tapez votre question (Ctrl+D pour quitter)\n\n", sess.ID)
	for {
		prompt := promptui.Prompt{Label: "Vous"}
		input, err := prompt.Run()
		if err != nil {
			// Ctrl+C or Ctrl+D ends the conversation.
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		result, err := ag.Run(ctx, sess, input)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			fmt.Fprintf(os.Stderr, "erreur : %v\n", err)
			continue
		}

		fmt.Printf("\n%s\n\n", result.Reply)
		if verbose {
			fmt.Fprintf(os.Stderr, "  %d itérations, %d outils, %d textes ajoutés à la chronologie\n",
				result.Stats.Iterations, result.Stats.ToolCalls, result.Stats.TimelineAdded)
		}
	}

	in, out, calls, cost := ag.Usage().Totals()
	if calls > 0 {
		fmt.Fprintf(os.Stderr, "\n%d appels modèle, %d tokens entrée, %d tokens sortie", calls, in, out)
		if cost > 0 {
			fmt.Fprintf(os.Stderr, " (~$%.4f)", cost)
		}
		fmt.Fprintln(os.Stderr)
	}
	fmt.Fprintf(os.Stderr, "session enregistrée : %s\n", sess.ID)
	return nil
}

func resumeOrCreate(store *session.Store, id string) (*session.Session, error) {
	if id == "" {
		return session.New(""), nil
	}
	sess, err := store.Load(id)
	if err != nil {
		return nil, fmt.Errorf("resuming session %s: %w", id, err)
	}
	fmt.Fprintf(os.Stderr, "reprise de la session %q (%d tours)\n", sess.Name, len(sess.Conversation))
	return sess, nil
}
