package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"coursetutor/internal/domain"
	"coursetutor/internal/usecase"
)

var (
	promptText string
	promptTopK int
	promptFull bool
)

var promptCmd = &cobra.Command{
	Use:   "prompt [question]",
	Short: "Print the prompt that ask would send to the LLM",
	Long: `Retrieve context for a question and print the rendered prompt without
calling any LLM. Useful for pasting into a chat UI or debugging retrieval.

Examples:
  coursetutor prompt "what is flexbox?"
  coursetutor prompt -q "css grid" -k 8 --system`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptText, "query", "q", "", "question to build the prompt for")
	promptCmd.Flags().IntVarP(&promptTopK, "top-k", "k", 0, "number of passages to include (default from config)")
	promptCmd.Flags().BoolVar(&promptFull, "system", false, "also print the system prompt")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	question := questionFrom(promptText, args)
	if question == "" {
		return fmt.Errorf("a question is required: use -q or pass it as an argument")
	}

	askUC, err := openAskUseCase(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}

	prompt, _, err := askUC.Prompt(cmd.Context(), domain.Query{Text: question, TopK: promptTopK})
	if err != nil {
		return err
	}

	if promptFull {
		fmt.Println(usecase.SystemPrompt)
		fmt.Println()
	}
	fmt.Println(prompt)
	return nil
}
