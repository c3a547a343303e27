package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/promptchain/chains"
	"github.com/randalmurphal/promptchain/config"
	"github.com/randalmurphal/promptchain/memory"
	"github.com/randalmurphal/promptchain/memory/sqlite"
	"github.com/randalmurphal/promptchain/provider"
	"github.com/randalmurphal/promptchain/tokens"
)

const chatSystem = "You are a friendly assistant having a conversation with a human. Keep answers short."

func (a *app) openStore() (memory.Store, error) {
	switch a.cfg.Memory.Store {
	case config.StoreSQLite:
		return sqlite.New(a.cfg.Memory.Path)
	default:
		return memory.NewMemoryStore(), nil
	}
}

// chatMemory builds the configured memory seeded with msgs. The returned
// func resets it.
func (a *app) chatMemory(client provider.Client, msgs []provider.Message) (memory.Memory, func(), error) {
	mc := a.cfg.Memory
	if mc.KeepTurns > 0 {
		sum, err := memory.NewSummary(client, memory.SummaryOptions{KeepTurns: mc.KeepTurns})
		if err != nil {
			return nil, nil, err
		}
		sum.Restore(msgs)
		return sum, sum.Clear, nil
	}
	hist := memory.NewHistory(msgs...)
	if mc.WindowTokens > 0 {
		var counter tokens.Counter = tokens.NewEstimatingCounter()
		if tc, err := tokens.ForModel(a.cfg.Provider.Model); err == nil {
			counter = tc
		}
		return hist.Windowed(counter, mc.WindowTokens), hist.Clear, nil
	}
	return hist, hist.Clear, nil
}

func newChatCmd(a *app) *cobra.Command {
	var (
		session string
		list    bool
		del     bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Hold a conversation that remembers earlier turns",
		Long: `Start an interactive conversation. Turns are persisted to the configured
session store so a conversation can be resumed with --session.

Commands: /clear forgets the conversation, /usage prints token usage,
/exit or end of input quits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			switch {
			case list:
				return listSessions(ctx, w, store)
			case del:
				if session == "" {
					return errors.New("--delete requires --session")
				}
				if err := store.Delete(ctx, session); err != nil {
					return err
				}
				fmt.Fprintln(w, color.GreenString("deleted session %s", session))
				return nil
			}

			if session == "" {
				session = memory.NewSessionID()
			}
			prior, err := store.Load(ctx, session)
			if err != nil {
				return err
			}
			client, err := a.model()
			if err != nil {
				return err
			}
			mem, reset, err := a.chatMemory(client, prior)
			if err != nil {
				return err
			}
			conv, err := memory.Conversation(mem, chains.Model(client, chains.WithTracker(a.tracker)), chatSystem)
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "%s %s (%d earlier messages)\n", color.CyanString("session"), session, len(prior))
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(w, color.GreenString("> "))
				if !scanner.Scan() {
					fmt.Fprintln(w)
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
					continue
				case "/exit", "/quit":
					return nil
				case "/clear":
					reset()
					if err := store.Delete(ctx, session); err != nil && !errors.Is(err, memory.ErrSessionNotFound) {
						return err
					}
					fmt.Fprintln(w, color.YellowString("conversation cleared"))
					continue
				case "/usage":
					printUsage(w, a.tracker)
					continue
				}

				out, err := conv.Invoke(ctx, line)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					fmt.Fprintln(w, color.RedString("error: %v", err))
					continue
				}
				reply := out.(string)
				fmt.Fprintln(w, reply)
				if err := store.Append(ctx, session,
					provider.NewTextMessage(provider.RoleUser, line),
					provider.NewTextMessage(provider.RoleAssistant, reply),
				); err != nil {
					return err
				}
			}
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "session ID to resume (default: a new session)")
	cmd.Flags().BoolVar(&list, "list", false, "list stored sessions")
	cmd.Flags().BoolVar(&del, "delete", false, "delete the session given by --session")
	return cmd
}

func listSessions(ctx context.Context, w io.Writer, store memory.Store) error {
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(w, "no sessions")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMESSAGES\tUPDATED")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", s.ID, s.Messages, s.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}
