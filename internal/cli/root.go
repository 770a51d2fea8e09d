package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/futig/docchat/internal/entity"
	chatuc "github.com/futig/docchat/internal/usecase/chat"
	"github.com/spf13/cobra"
)

// DocumentService is the document use case as seen by the CLI
type DocumentService interface {
	Upload(ctx context.Context, req *entity.UploadDocumentRequest) (*entity.Document, error)
	List(ctx context.Context, userID string) ([]*entity.Document, error)
	Delete(ctx context.Context, userID, documentID string) error
	Reingest(ctx context.Context, userID, documentID string) (*entity.Document, error)
}

// ChatService is the chat use case as seen by the CLI
type ChatService interface {
	Respond(ctx context.Context, req *entity.ChatRequest) (*chatuc.Reply, error)
}

// Services are opened once per command invocation and closed when it returns
type Services struct {
	Documents DocumentService
	Chat      ChatService
	Close     func()
}

// Opener builds the services for an environment name
type Opener func(environment string) (*Services, error)

type app struct {
	open        Opener
	environment string
	userID      string
}

// NewRootCommand assembles the docchat command tree
func NewRootCommand(open Opener) *cobra.Command {
	a := &app{open: open}

	root := &cobra.Command{
		Use:   "docchat",
		Short: "Chat with your documents",
		Long: `docchat ingests documents into the vector store and answers questions
grounded in the selected documents.`,
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.PersistentFlags().StringVar(&a.environment, "env", "local", "environment name, selects the .env.<env> file")
	root.PersistentFlags().StringVarP(&a.userID, "user", "u", "", "owner of the documents")

	root.AddCommand(a.ingestCommand())
	root.AddCommand(a.askCommand())
	root.AddCommand(a.docsCommand())
	return root
}

// withServices opens the services, runs fn and closes them again
func (a *app) withServices(fn func(*Services) error) error {
	if a.userID == "" {
		return fmt.Errorf("%w: --user is required", entity.ErrMissingField)
	}

	services, err := a.open(a.environment)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	if services == nil {
		return errors.New("services not configured")
	}
	if services.Close != nil {
		defer services.Close()
	}
	return fn(services)
}
