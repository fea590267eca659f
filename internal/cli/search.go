package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchText string
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [question]",
	Short: "Show the transcript passages closest to a question",
	Long: `Embed the question and list the most similar transcript chunks by cosine
similarity, without calling an LLM.

Examples:
  coursetutor search -q "css flexbox"
  coursetutor search "how do forms submit data" -k 10 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	question := questionFrom(searchText, args)
	if question == "" {
		return fmt.Errorf("a question is required: use -q or pass it as an argument")
	}

	askUC, err := openAskUseCase(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}

	results, err := askUC.Search(cmd.Context(), question, searchTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), question)
	printResults(results)
	return nil
}
