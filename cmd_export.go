package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"dockchat/chat"
)

var flagExportFormat string

func init() {
	exportCmd.Flags().StringVarP(&flagExportFormat, "format", "f", "json", "output format (json or markdown)")
	rootCmd.AddCommand(exportCmd, historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored conversations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := buildEnv()
		if err != nil {
			return err
		}
		defer env.close()

		conversations := env.engine.Conversations()
		if len(conversations) == 0 {
			fmt.Println("no stored conversations")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTITLE\tMESSAGES\tUPDATED")
		for i, c := range conversations {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\n",
				i+1, c.Title, len(c.Messages),
				time.UnixMilli(c.LastUpdateTime).Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <n> <path>",
	Short: "Export a conversation to a file",
	Long:  "Export conversation number n (as listed by dockchat history) to path.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := buildEnv()
		if err != nil {
			return err
		}
		defer env.close()

		var n int
		if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil {
			return fmt.Errorf("invalid conversation number %q", args[0])
		}
		conversations := env.engine.Conversations()
		if n < 1 || n > len(conversations) {
			return fmt.Errorf("no conversation %d (have %d)", n, len(conversations))
		}

		format := chat.ExportFormat(flagExportFormat)
		switch format {
		case chat.FormatJSON, chat.FormatMarkdown:
		case "md":
			format = chat.FormatMarkdown
		default:
			return fmt.Errorf("unknown format %q", flagExportFormat)
		}

		c := conversations[n-1]
		if err := chat.ExportConversation(c, format, args[1]); err != nil {
			return fmt.Errorf("failed to export conversation: %w", err)
		}
		fmt.Printf("exported %q to %s\n", c.Title, args[1])
		return nil
	},
}
