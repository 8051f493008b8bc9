package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bierlingm/worldview-extractor/internal/comparison"
	"github.com/bierlingm/worldview-extractor/internal/config"
	"github.com/bierlingm/worldview-extractor/internal/domain"
	"github.com/bierlingm/worldview-extractor/internal/embedding"
	"github.com/bierlingm/worldview-extractor/internal/service"
	"github.com/bierlingm/worldview-extractor/internal/similarity"
	"github.com/bierlingm/worldview-extractor/internal/synthesis"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// cli carries global flags and the lazily built analysis stack.
type cli struct {
	jsonOut  bool
	provider string
	verbose  bool
	stdin    io.Reader

	logger      *zap.Logger
	similarity  *similarity.Service
	comparator  *comparison.Comparator
	synthesizer *synthesis.Synthesizer
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "wve",
		Short: "Compare and synthesize extracted worldviews",
		Long: `wve works on worldview JSON documents: a subject and the points
(theme, stance, confidence, evidence, sources) extracted for them.

Examples:
  # Compare two worldviews
  wve diff alice.json bob.json

  # Themes others address that Alice does not
  wve blindspots alice.json bob.json carol.json

  # Synthesize a movement document
  wve synthesize alice.json bob.json carol.json --title "Tech Discourse" -o movement.md`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.stdin = cmd.InOrStdin()
			c.setup(cmd.ErrOrStderr())
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "Output JSON")
	root.PersistentFlags().StringVar(&c.provider, "provider", config.EmbeddingProvider(), "Embedding provider (openai, ollama, genai, mock)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log to stderr")

	root.AddCommand(
		newDiffCmd(c),
		newBlindspotsCmd(c),
		newSynthesizeCmd(c),
		newValidateCmd(c),
		newEvalCmd(c),
		newVersionCmd(),
	)
	return root
}

func (c *cli) setup(stderr io.Writer) {
	level := zapcore.WarnLevel
	if c.verbose {
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	c.logger = zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(stderr), level))

	opts := embedding.Options{
		Provider:       c.provider,
		APIKey:         providerKey(c.provider),
		OllamaEndpoint: config.OllamaEndpoint(),
		OllamaModel:    config.OllamaModel(),
	}
	c.similarity = similarity.NewService(embedding.NewLoader(opts, nil, c.logger), c.logger)
	c.comparator = comparison.NewComparator(c.similarity, c.logger)
	c.synthesizer = synthesis.NewSynthesizer(c.comparator, c.similarity, c.logger)
}

func providerKey(provider string) string {
	switch provider {
	case embedding.ProviderOpenAI:
		return config.OpenAIAPIKey()
	case embedding.ProviderGenAI:
		return config.GeminiAPIKey()
	default:
		return ""
	}
}

// readWorldview loads and validates a worldview file; "-" reads stdin.
func (c *cli) readWorldview(path string) (*domain.Worldview, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(c.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	w, err := service.ParseWorldview(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

func (c *cli) readWorldviews(paths []string) ([]domain.Worldview, error) {
	out := make([]domain.Worldview, 0, len(paths))
	stdinUsed := false
	for _, p := range paths {
		if p == "-" {
			if stdinUsed {
				return nil, fmt.Errorf("stdin (-) can be given only once")
			}
			stdinUsed = true
		}
		w, err := c.readWorldview(p)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
