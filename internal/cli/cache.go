package cli

import (
	"github.com/spf13/cobra"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheListCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached responses from the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Cache().Close()

			prefix := ""
			if namespace != "" {
				prefix = namespace + "/"
			}

			keys, err := client.Cache().Keys(ctx, prefix)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				printInfo("Cache is empty")
				return nil
			}

			if err := client.Cache().Purge(ctx, prefix); err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries", len(keys))
			return nil
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "only clear one namespace")
	return cmd
}

// cacheListCommand creates the "cache list" subcommand.
func (c *CLI) cacheListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached entry keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Cache().Close()

			keys, err := client.Cache().Keys(ctx, "")
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				printInfo("Cache is empty")
				return nil
			}
			for _, key := range keys {
				printDetail("%s", key)
			}
			return nil
		},
	}
}
