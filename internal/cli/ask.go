package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridoc/veridoc/internal/chat"
)

var askQuestion string

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Chat with the verified corpus",
	Long: `Ask starts an interactive chat session over the verified corpus.
Each question is rephrased against the conversation history, grounded in
retrieved corpus chunks and answered by the configured LLM.

Example:
  veridoc ask
  veridoc ask --question "What does the Q3 report say about revenue?"`,
	Args: cobra.NoArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "ask a single question and exit")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	svc := chat.NewService(a.completer, a.index, a.cfg.LLM.Model, a.cfg.Search.Limit)
	conv := chat.NewConversation()

	if askQuestion != "" {
		return askOnce(ctx, svc, conv, askQuestion)
	}

	fmt.Println(conv.Messages[0].Content)
	fmt.Println(`Type a question, or "exit" to quit.`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}
		if err := askOnce(ctx, svc, conv, question); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return scanner.Err()
}

func askOnce(ctx context.Context, svc *chat.Service, conv *chat.ConversationState, question string) error {
	askCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	answer, err := svc.Ask(askCtx, conv, question)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	if len(conv.RelatedDocuments) > 0 {
		fmt.Println("\nRelated documents:")
		for _, doc := range conv.RelatedDocuments {
			fmt.Printf("  - %s\n", doc)
		}
	}
	return nil
}
