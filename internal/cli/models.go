package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var modelSessionID string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List and select chat models",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the models the backend offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		env := chatSvc.GetModels(context.Background())
		if !env.Success {
			return fmt.Errorf("list models: %s", env.Err)
		}
		var payload struct {
			Models []string `json:"models"`
		}
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return fmt.Errorf("decode model list: %w", err)
		}
		for _, m := range payload.Models {
			fmt.Println(m)
		}
		return nil
	},
}

var modelsSetCmd = &cobra.Command{
	Use:   "set <model>",
	Short: "Select the model used for replies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env := chatSvc.SetModel(context.Background(), args[0], modelSessionID)
		if !env.Success {
			return fmt.Errorf("set model: %s", env.Err)
		}
		fmt.Printf("Model set to %s\n", args[0])
		return nil
	},
}

func init() {
	modelsSetCmd.Flags().StringVar(&modelSessionID, "session", "", "apply to a single session")

	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsSetCmd)
}
