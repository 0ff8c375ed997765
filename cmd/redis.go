package cmd

import (
	"context"
	"fmt"
	"time"

	"gamedigest/internal/redisclient"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis maintenance commands",
}

// redisPingCmd checks connectivity to the store backing the collectors.
var redisPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity to the configured Redis server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()

		res, rtt, err := redisclient.Check(context.Background(), rdb)
		if err != nil {
			return fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s from %s in %s\n", res, cfg.Redis.Addr, rtt.Round(time.Microsecond))
		return nil
	},
}

func init() {
	redisCmd.AddCommand(redisPingCmd)
	rootCmd.AddCommand(redisCmd)
}
