package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/searchgate/searchgate/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	command := NewSearchgateCommand()
	if err := command.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func NewSearchgateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "searchgate-api",
		Short: "searchgate-api serves the search REST API",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdServe())
	cmd.AddCommand(cli.NewCmdMediaTypes())
	cmd.AddCommand(cli.NewCmdVersion())
	return cmd
}
