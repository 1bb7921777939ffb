package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docsight/internal/adapters/driving/tui"
	"github.com/custodia-labs/docsight/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask questions about a project",
	Long: `Ask questions about the documents of a project. Answers cite the
passages they are based on as [n], listed under Sources.

With a question (as argument or --message) the answer is printed and the
command exits. Without one, the interactive terminal UI opens when the
terminal allows it; otherwise questions are read from standard input,
one per line.

Examples:
  docsight chat -p "Acme Deal" "When is the closing date?"
  docsight chat -p "Acme Deal"
  echo "Who signed the NDA?" | docsight chat -p "Acme Deal"
  docsight chat -p "Acme Deal" --history 10`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

var (
	chatProject string
	chatMessage string
	chatHistory int
	chatClear   bool
)

// isTerminal reports whether stdin and stdout are both terminals.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// runTUI opens the interactive UI for a project.
var runTUI = func(ctx context.Context, project domain.ProjectSummary) error {
	app, err := tui.NewApp(&tui.Ports{
		Chat:      chatService,
		KeyPoints: keyPointService,
		Documents: documentService,
		Search:    searchService,
	}, project)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	return app.WithContext(ctx).Run()
}

func init() {
	chatCmd.Flags().StringVarP(&chatProject, "project", "p", "", "project ID or name")
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "question to ask")
	chatCmd.Flags().IntVar(&chatHistory, "history", -1, "print the last N messages (0 = all)")
	chatCmd.Flags().BoolVar(&chatClear, "clear", false, "delete the conversation")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	project, err := resolveProject(cmd, projectRef(chatProject))
	if err != nil {
		return err
	}

	switch {
	case chatClear:
		if err := chatService.Clear(cmd.Context(), project.ID); err != nil {
			return fmt.Errorf("failed to clear conversation: %w", err)
		}
		cmd.Printf("Conversation with %s cleared.\n", project.Name)
		return nil

	case chatHistory >= 0:
		return printHistory(cmd, project.ID, chatHistory)
	}

	question := chatMessage
	if question == "" && len(args) > 0 {
		question = args[0]
	}
	if strings.TrimSpace(question) != "" {
		return askAndPrint(cmd, project.ID, question)
	}

	if isTerminal() {
		if err := runTUI(cmd.Context(), *project); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	}
	return chatFromReader(cmd, project.ID, cmd.InOrStdin())
}

func askAndPrint(cmd *cobra.Command, projectID, question string) error {
	answer, err := chatService.Ask(cmd.Context(), projectID, question)
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}
	printMessage(cmd, answer)
	return nil
}

// chatFromReader asks one question per non-empty line of r.
func chatFromReader(cmd *cobra.Command, projectID string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		cmd.Printf("> %s\n", question)
		if err := askAndPrint(cmd, projectID, question); err != nil {
			return err
		}
		cmd.Println()
	}
	return scanner.Err()
}

func printHistory(cmd *cobra.Command, projectID string, limit int) error {
	history, err := chatService.History(cmd.Context(), projectID, limit)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}
	if len(history) == 0 {
		cmd.Println("No messages yet.")
		return nil
	}
	for i := range history {
		m := &history[i]
		who := "docsight"
		if m.Role == domain.RoleUser {
			who = "You"
		}
		cmd.Printf("[%s] %s:\n", m.CreatedAt.Format(timeLayout), who)
		printMessage(cmd, m)
		cmd.Println()
	}
	return nil
}

func printMessage(cmd *cobra.Command, m *domain.ChatMessage) {
	cmd.Println(m.Content)
	if len(m.Sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, src := range m.Sources {
		cmd.Printf("  [%d] %s (%.0f%%)\n", i+1, src.DocumentName, src.Confidence*100)
	}
}
