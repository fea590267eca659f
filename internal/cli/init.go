package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"coursetutor/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default coursetutor.yaml",
	Long: `Write the default configuration to coursetutor.yaml in the project
directory so it can be edited.

Examples:
  coursetutor init
  coursetutor init -d ./course --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path, err := config.WriteDefault(GetRootDir(), initForce)
	if err != nil {
		return err
	}
	fmt.Printf("Config written to: %s\n", path)
	fmt.Println("Edit it, then run 'coursetutor build' to embed your transcripts.")
	return nil
}
