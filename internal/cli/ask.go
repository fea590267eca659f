package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"coursetutor/internal/domain"
)

var (
	askText     string
	askTopK     int
	askProvider string
	askModel    string
	askJSON     bool
	askSources  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question and get an answer grounded in the course videos",
	Long: `Retrieve the transcript passages most similar to the question and ask an
LLM which videos and timestamps cover it.

Examples:
  coursetutor ask "how do I center a div?"
  coursetutor ask -q "what is the box model" --provider anthropic
  coursetutor ask "explain media queries" --provider ollama --model llama3.2 --sources`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askText, "query", "q", "", "question to ask")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages to retrieve (default from config)")
	askCmd.Flags().StringVarP(&askProvider, "provider", "p", "", "LLM provider: openai, deepseek, anthropic, ollama (default from config)")
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "LLM model (default depends on provider)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "print the retrieved passages after the answer")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	question := questionFrom(askText, args)
	if question == "" {
		return fmt.Errorf("a question is required: use -q or pass it as an argument")
	}

	askUC, err := openAskUseCase(cfg, GetRootDir())
	if err != nil {
		return err
	}

	provider, err := newLLM(cfg, askProvider, askModel)
	if err != nil {
		return withKeyHint(err)
	}

	answer, err := askUC.Ask(cmd.Context(), domain.Query{
		Text:     question,
		Provider: askProvider,
		Model:    askModel,
		TopK:     askTopK,
	}, provider)
	if err != nil {
		return withKeyHint(err)
	}

	if askJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(answer.Text)
	if askSources {
		fmt.Printf("\nSources (%s/%s):\n\n", answer.Provider, answer.Model)
		printResults(answer.Sources)
	}
	return nil
}

func withKeyHint(err error) error {
	var pe *domain.LLMProviderError
	if errors.As(err, &pe) && pe.Kind == domain.LLMAuth {
		return fmt.Errorf("%w (check the API key for %s)", err, pe.Provider)
	}
	return err
}
