package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"coursetutor/internal/adapter/store"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show embedding store metadata",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	storePath := cfg.StorePath(GetRootDir())

	st, err := store.Load(storePath)
	if err != nil {
		return err
	}

	videos := make(map[string]struct{})
	chars := 0
	for _, rec := range st.Records {
		videos[rec.Chunk.VideoID] = struct{}{}
		chars += rec.Chunk.CharCount
	}

	fmt.Printf("Store:      %s\n", storePath)
	fmt.Printf("Model:      %s (%d dimensions)\n", st.Model, st.Dimension)
	fmt.Printf("Build ID:   %s\n", st.BuildID)
	fmt.Printf("Created:    %s\n", st.CreatedAt.Local().Format(time.DateTime))
	fmt.Printf("Videos:     %d\n", len(videos))
	fmt.Printf("Chunks:     %d\n", st.Len())
	if st.Len() > 0 {
		fmt.Printf("Avg chunk:  %d chars\n", chars/st.Len())
	}

	if st.Model != cfg.Embedding.Model {
		fmt.Printf("\nWarning: configured embedding model is %q; run 'coursetutor build' to rebuild.\n", cfg.Embedding.Model)
	} else if st.ConfigHash != "" && st.ConfigHash != store.ComputeConfigHash(cfg) {
		fmt.Println("\nWarning: chunking or embedding settings changed since this store was built.")
	}
	return nil
}
