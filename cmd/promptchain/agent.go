package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/promptchain/agent"
	"github.com/randalmurphal/promptchain/pipeline"
	"github.com/randalmurphal/promptchain/retrieval"
	"github.com/randalmurphal/promptchain/tools"
)

const agentSystem = `You are a careful assistant. Use the available tools for arithmetic,
the current time, counting words and looking up documents instead of guessing.
Answer in plain prose once you have what you need.`

type calcArgs struct {
	A  float64 `json:"a" jsonschema:"description=Left operand"`
	Op string  `json:"op" jsonschema:"enum=add,enum=sub,enum=mul,enum=div,enum=pow,description=Operation"`
	B  float64 `json:"b" jsonschema:"description=Right operand"`
}

type timeArgs struct {
	Zone string `json:"zone,omitempty" jsonschema:"description=IANA time zone such as Europe/Paris; defaults to UTC"`
}

type textArgs struct {
	Text string `json:"text" jsonschema:"description=Text to count"`
}

type searchArgs struct {
	Query string `json:"query" jsonschema:"description=What to look for"`
}

func calculate(_ context.Context, in calcArgs) (float64, error) {
	switch in.Op {
	case "add":
		return in.A + in.B, nil
	case "sub":
		return in.A - in.B, nil
	case "mul":
		return in.A * in.B, nil
	case "div":
		if in.B == 0 {
			return 0, errors.New("division by zero")
		}
		return in.A / in.B, nil
	case "pow":
		return math.Pow(in.A, in.B), nil
	}
	return 0, fmt.Errorf("unknown operation %q", in.Op)
}

func currentTime(_ context.Context, in timeArgs) (string, error) {
	loc := time.UTC
	if in.Zone != "" {
		var err error
		if loc, err = time.LoadLocation(in.Zone); err != nil {
			return "", err
		}
	}
	return time.Now().In(loc).Format(time.RFC1123), nil
}

func wordCount(_ context.Context, in textArgs) (int, error) {
	return len(strings.Fields(in.Text)), nil
}

func builtinTools() *tools.Registry {
	return tools.NewRegistry(
		tools.MustNew("calculate", "Apply an arithmetic operation to two numbers.", calculate),
		tools.MustNew("current_time", "Return the current date and time.", currentTime),
		tools.MustNew("word_count", "Count the words in a text.", wordCount),
	)
}

// searchTool indexes every .md and .txt file under dir and exposes a
// retriever over them as a tool.
func (a *app) searchTool(ctx context.Context, dir string, k int) (*tools.Tool, error) {
	emb := a.cfg.Embeddings
	embedder, err := retrieval.NewHTTPEmbedder(retrieval.HTTPEmbedderOptions{
		URL:     emb.URL,
		Model:   emb.Model,
		APIKey:  emb.APIKey,
		Timeout: emb.Timeout,
	})
	if err != nil {
		return nil, err
	}
	texts, err := readDocs(dir)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("no .md or .txt files in %s", dir)
	}
	index := retrieval.NewMemoryIndex()
	if err := retrieval.IndexTexts(ctx, embedder, index, texts); err != nil {
		return nil, fmt.Errorf("index %s: %w", dir, err)
	}
	a.logger.Info("indexed documents", "dir", dir, "count", index.Len())

	retriever, err := retrieval.Retriever(embedder, index, k)
	if err != nil {
		return nil, err
	}
	return tools.New("search_docs", "Search the local document collection and return the most relevant passages.",
		func(ctx context.Context, in searchArgs) (string, error) {
			out, err := retriever.Invoke(ctx, pipeline.Values{"input": in.Query})
			if err != nil {
				return "", err
			}
			return out.(retrieval.Documents).String(), nil
		})
}

func readDocs(dir string) (map[string]string, error) {
	texts := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".txt":
		default:
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		texts[filepath.ToSlash(rel)] = strings.TrimSpace(string(data))
		return nil
	})
	return texts, err
}

func newAgentCmd(a *app) *cobra.Command {
	var (
		docsDir   string
		topK      int
		showSteps bool
	)
	cmd := &cobra.Command{
		Use:   "agent [question...]",
		Short: "Answer a question with a tool-using agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			client, err := a.model()
			if err != nil {
				return err
			}
			registry := builtinTools()
			if docsDir != "" {
				search, err := a.searchTool(cmd.Context(), docsDir, topK)
				if err != nil {
					return err
				}
				if err := registry.Add(search); err != nil {
					return err
				}
			}

			exec := &agent.Executor{
				Client:       client,
				Tools:        registry,
				MaxTurns:     a.cfg.Agent.MaxTurns,
				SystemPrompt: agentSystem,
				Logger:       a.logger,

				MaxToolOutputTokens: a.cfg.Agent.MaxToolOutputTokens,
			}
			res, err := exec.Run(cmd.Context(), text)
			if res != nil {
				a.tracker.Record(a.cfg.Provider.Model, res.Usage)
			}
			if err != nil && !errors.Is(err, agent.ErrMaxTurns) {
				return err
			}

			w := cmd.OutOrStdout()
			if showSteps {
				for _, step := range res.Steps {
					line := fmt.Sprintf("%s(%s) -> %s", step.Call.Name, step.Call.Arguments, step.Output)
					if step.IsError {
						line = color.RedString(line)
					}
					fmt.Fprintln(w, line)
				}
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, res.Output)
			return err
		},
	}
	cmd.Flags().StringVar(&docsDir, "docs", "", "directory of .md/.txt files to expose through a search tool")
	cmd.Flags().IntVar(&topK, "top-k", 3, "documents returned per search")
	cmd.Flags().BoolVar(&showSteps, "steps", false, "print every tool call")
	return cmd
}
