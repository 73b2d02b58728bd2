package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olivekit/oliveapi/pkg/queue"
)

// queueCommand creates the offline-queue management command.
func (c *CLI) queueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and replay queued offline mutations",
		Long: `Mutations made while the network was unavailable are stored durably and
wait for a replay. "queue list" shows them, "queue replay" re-sends the
pending ones, and "queue clear" empties the store.`,
	}

	cmd.AddCommand(c.queueListCommand())
	cmd.AddCommand(c.queueReplayCommand())
	cmd.AddCommand(c.queueClearCommand())

	return cmd
}

// queueListCommand creates the "queue list" subcommand.
func (c *CLI) queueListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued mutations with their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.newClient(ctx)
			if err != nil {
				return err
			}

			items, err := client.QueueStore().All(ctx)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				printInfo("Queue is empty")
				return nil
			}

			var pending, applied, rejected int
			for _, item := range items {
				switch item.Status {
				case queue.StatusApplied:
					applied++
				case queue.StatusRejected:
					rejected++
				default:
					pending++
				}

				status := statusStyle(string(item.Status)).Render(string(item.Status))
				fmt.Printf("%s  %-8s %-6s %s\n",
					StyleDim.Render(item.AddedAt.Local().Format("2006-01-02 15:04")),
					status,
					item.Request.Method,
					StyleValue.Render(item.Request.URL))
				if item.LastError != "" {
					printDetail("%s", item.LastError)
				}
			}

			printQueueStats(pending, applied, rejected)
			return nil
		},
	}
}

// queueReplayCommand creates the "queue replay" subcommand.
func (c *CLI) queueReplayCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-send pending queued mutations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.newClient(ctx)
			if err != nil {
				return err
			}

			if interactive {
				return c.replayInteractive(ctx, client)
			}

			prog := newProgress(loggerFromContext(ctx))
			spin := newSpinnerWithContext(ctx, "Replaying queued mutations")
			spin.Start()

			applied, rejected, err := client.ReplayQueue(ctx)
			if err != nil {
				spin.StopWithError(err.Error())
				return err
			}
			spin.Stop()

			switch {
			case applied == 0 && rejected == 0:
				printInfo("Nothing to replay")
			case rejected == 0:
				printSuccess("Replayed %d mutations", applied)
			default:
				printWarning("Replayed %d mutations, %d rejected", applied, rejected)
				printDetail("Run 'oliveapi queue list' to inspect rejections")
			}
			prog.done(fmt.Sprintf("Replay finished (%d applied, %d rejected)", applied, rejected))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick individual mutations to replay")
	return cmd
}

// queueClearCommand creates the "queue clear" subcommand.
func (c *CLI) queueClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every queued mutation, including rejected ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.newClient(ctx)
			if err != nil {
				return err
			}

			items, err := client.QueueStore().All(ctx)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				printInfo("Queue is empty")
				return nil
			}

			if err := client.QueueStore().Clear(ctx); err != nil {
				return err
			}
			printSuccess("Removed %d queued mutations", len(items))
			return nil
		},
	}
}
