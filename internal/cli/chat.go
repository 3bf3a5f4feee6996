package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragchat/internal/model"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Send messages and read history",
}

var chatSendCmd = &cobra.Command{
	Use:   "send <session-id> <text>",
	Short: "Send a message and print the refreshed conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		text := strings.Join(args[1:], " ")
		if err := chatStore.SendMessage(context.Background(), sessionID, text); err != nil {
			return err
		}
		printMessages(chatStore.Snapshot().Messages)
		return nil
	},
}

var chatStreamCmd = &cobra.Command{
	Use:   "stream <text>",
	Short: "Send a message and print the reply as it streams in",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		err := chatSvc.SendStreamingMessage(context.Background(), text, func(chunk string) {
			fmt.Print(chunk)
		}, chatSessionID)
		fmt.Println()
		return err
	},
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Print a session's message history",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := ""
		if len(args) == 1 {
			sessionID = args[0]
		}
		env := chatSvc.GetChatHistory(context.Background(), sessionID)
		if !env.Success {
			return fmt.Errorf("fetch history: %s", env.Err)
		}
		messages, err := model.NormalizeMessages(env.Data)
		if err != nil {
			return err
		}
		printMessages(messages)
		return nil
	},
}

var chatClearHistoryCmd = &cobra.Command{
	Use:   "clear-history [session-id]",
	Short: "Clear a session's message history",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := ""
		if len(args) == 1 {
			sessionID = args[0]
		}
		env := chatSvc.ClearChatHistory(context.Background(), sessionID)
		if !env.Success {
			return fmt.Errorf("clear history: %s", env.Err)
		}
		fmt.Println("History cleared.")
		return nil
	},
}

func printMessages(messages []model.Message) {
	for _, msg := range messages {
		fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Format("15:04:05"), msg.Role, msg.Content)
	}
}

func init() {
	chatStreamCmd.Flags().StringVar(&chatSessionID, "session", "", "session to attach the exchange to")

	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatStreamCmd)
	chatCmd.AddCommand(chatHistoryCmd)
	chatCmd.AddCommand(chatClearHistoryCmd)
}
