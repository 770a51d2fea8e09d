package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/futig/docchat/internal/entity"
	"github.com/spf13/cobra"
)

func (a *app) ingestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [path]",
		Short: "Upload and ingest a document",
		Long:  `Reads a .txt, .md, .pdf, .doc or .docx file, extracts its text and stores its chunk embeddings.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			return a.withServices(func(s *Services) error {
				doc, err := s.Documents.Upload(cmd.Context(), &entity.UploadDocumentRequest{
					UserID:   a.userID,
					Filename: filepath.Base(args[0]),
					Content:  content,
				})
				if err != nil {
					return fmt.Errorf("failed to ingest document: %w", err)
				}

				cmd.Printf("Ingested %s\n", doc.Name)
				printDocument(cmd, doc)
				return nil
			})
		},
	}
}

func (a *app) docsCommand() *cobra.Command {
	docs := &cobra.Command{
		Use:   "docs",
		Short: "Manage ingested documents",
	}

	docs.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withServices(func(s *Services) error {
				list, err := s.Documents.List(cmd.Context(), a.userID)
				if err != nil {
					return fmt.Errorf("failed to list documents: %w", err)
				}

				if len(list) == 0 {
					cmd.Println("No documents found.")
					return nil
				}
				for _, doc := range list {
					printDocument(cmd, doc)
					cmd.Println()
				}
				cmd.Printf("Total: %d documents\n", len(list))
				return nil
			})
		},
	})

	docs.AddCommand(&cobra.Command{
		Use:   "rm [doc-id]",
		Short: "Delete a document with its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withServices(func(s *Services) error {
				if err := s.Documents.Delete(cmd.Context(), a.userID, args[0]); err != nil {
					return fmt.Errorf("failed to delete document: %w", err)
				}
				cmd.Printf("Deleted %s\n", args[0])
				return nil
			})
		},
	})

	docs.AddCommand(&cobra.Command{
		Use:   "reingest [doc-id]",
		Short: "Rebuild a document's chunks from the stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withServices(func(s *Services) error {
				doc, err := s.Documents.Reingest(cmd.Context(), a.userID, args[0])
				if err != nil {
					return fmt.Errorf("failed to re-ingest document: %w", err)
				}
				printDocument(cmd, doc)
				return nil
			})
		},
	})

	return docs
}

func printDocument(cmd *cobra.Command, doc *entity.Document) {
	cmd.Printf("  %s\n", doc.ID)
	cmd.Printf("    Name:    %s\n", doc.Name)
	cmd.Printf("    Status:  %s\n", doc.Status)
	cmd.Printf("    Chunks:  %d\n", doc.ChunkCount)
	cmd.Printf("    Created: %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	if doc.Error != nil {
		cmd.Printf("    Error:   %s\n", *doc.Error)
	}
}
