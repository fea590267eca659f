package cli

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"coursetutor/internal/adapter/chunker"
	"coursetutor/internal/adapter/embedding"
	"coursetutor/internal/adapter/fs"
	"coursetutor/internal/adapter/store"
	"coursetutor/internal/adapter/transcript"
	"coursetutor/internal/usecase"
)

var (
	buildMaxChars int
	buildOutput   string
)

var buildCmd = &cobra.Command{
	Use:   "build [transcripts-dir]",
	Short: "Embed transcripts into the embedding store",
	Long: `Load every transcript JSON file, group segments into chunks, embed them
and write the embedding store. The store is replaced atomically, so a failed
build leaves the previous store untouched.

Examples:
  coursetutor build                    # Use transcripts.dir from config
  coursetutor build ./jsons --max-chars 500`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().IntVar(&buildMaxChars, "max-chars", 0, "maximum chunk size in characters (default from config)")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "store path (default from config)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()

	if buildMaxChars > 0 {
		cfg.Chunk.MaxChars = buildMaxChars
	}

	transcriptsDir := cfg.TranscriptsDir(rootDir)
	if len(args) > 0 {
		var err error
		transcriptsDir, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	storePath := cfg.StorePath(rootDir)
	if buildOutput != "" {
		storePath = buildOutput
	}

	client, err := embedding.NewValidatingClient(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	buildUC := usecase.NewBuildUseCase(
		transcript.NewLoader(fs.NewWalker(cfg.Transcripts.Includes, cfg.Transcripts.Excludes)),
		chunker.NewSegmentChunker(cfg.Chunk.MaxChars),
		client,
		usecase.BuildOptions{
			BatchSize:   cfg.Embedding.BatchSize,
			Concurrency: cfg.Embedding.Concurrency,
			ConfigHash:  store.ComputeConfigHash(cfg),
		},
	)

	fmt.Printf("Embedding transcripts from %s with %s (%s)...\n",
		transcriptsDir, cfg.Embedding.Model, cfg.Embedding.Provider)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	buildUC.OnProgress(func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		elapsed := time.Since(startTime)
		if done > 0 && elapsed > 0 {
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	})

	result, err := buildUC.Build(cmd.Context(), transcriptsDir, storePath)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Printf("\nBuild complete:\n")
	fmt.Printf("  Videos:     %d\n", result.Videos)
	fmt.Printf("  Segments:   %d\n", result.Segments)
	fmt.Printf("  Chunks:     %d\n", result.Chunks)
	fmt.Printf("  Model:      %s (%d dimensions)\n", result.Model, result.Dimension)
	fmt.Printf("  Build ID:   %s\n", result.BuildID)
	fmt.Printf("  Took:       %s\n", formatDuration(result.Duration))
	fmt.Printf("\nStore written to: %s\n", storePath)
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
