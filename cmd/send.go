package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gamedigest/internal/digest"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <markdown_path>",
	Short: "Deliver a digest file to the Discord webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		sender, err := buildWebhook(cfg)
		if err != nil {
			return err
		}
		if sender == nil {
			return fmt.Errorf("discord config missing: set discord.webhook_url in config.yaml")
		}

		mdPath := args[0]
		doc, err := digest.ParseFile(mdPath)
		if err != nil {
			return err
		}
		body := strings.TrimSpace(doc.Body)
		if body == "" {
			return fmt.Errorf("digest file has no body: %s", mdPath)
		}
		if title, ok := doc.Frontmatter["title"].(string); ok && strings.TrimSpace(title) != "" {
			body = fmt.Sprintf("**%s**\n\n%s", strings.TrimSpace(title), body)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := sender.Send(ctx, body); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Delivered %s to Discord\n", mdPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
