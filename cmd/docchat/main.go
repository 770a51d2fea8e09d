package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/futig/docchat/internal/builder"
	"github.com/futig/docchat/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(func(environment string) (*cli.Services, error) {
		services, err := builder.BuildServices(environment)
		if err != nil {
			return nil, err
		}
		return &cli.Services{
			Documents: services.Documents,
			Chat:      services.Chat,
			Close:     services.Close,
		}, nil
	})

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
