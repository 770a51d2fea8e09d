package cli

import (
	"encoding/json"
	"fmt"

	"github.com/futig/docchat/internal/entity"
	"github.com/spf13/cobra"
)

type askResult struct {
	Answer  string                   `json:"answer"`
	Sources *entity.SourceAnnotation `json:"sources,omitempty"`
}

func (a *app) askCommand() *cobra.Command {
	var (
		documentIDs []string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about your documents",
		Long: `Streams an answer grounded in the selected documents to stdout and then
lists the chunks it was grounded on.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(documentIDs) == 0 {
				return fmt.Errorf("%w: pass at least one --doc", entity.ErrNoDocumentsSelected)
			}

			return a.withServices(func(s *Services) error {
				reply, err := s.Chat.Respond(cmd.Context(), &entity.ChatRequest{
					Turns:       []entity.ChatTurn{{Role: entity.RoleUser, Content: args[0]}},
					UserID:      a.userID,
					DocumentIDs: documentIDs,
				})
				if err != nil {
					return fmt.Errorf("failed to answer: %w", err)
				}

				out := cmd.OutOrStdout()
				for fragment, err := range reply.Fragments() {
					if err != nil {
						break
					}
					if !asJSON {
						fmt.Fprint(out, fragment)
					}
				}

				annotation, err := reply.Finalize()
				if err != nil {
					if !asJSON {
						cmd.Println()
					}
					return fmt.Errorf("answer interrupted: %w", err)
				}

				if asJSON {
					data, err := json.MarshalIndent(askResult{Answer: reply.Text(), Sources: annotation}, "", "  ")
					if err != nil {
						return fmt.Errorf("failed to marshal answer: %w", err)
					}
					cmd.Println(string(data))
					return nil
				}

				cmd.Println()
				printSources(cmd, annotation)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&documentIDs, "doc", "d", nil, "document id to search, repeatable")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the answer and sources as JSON")
	return cmd
}

func printSources(cmd *cobra.Command, annotation *entity.SourceAnnotation) {
	if annotation == nil || len(annotation.Sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Println("Sources:")
	for _, src := range annotation.Sources {
		score, _ := src.Metadata["similarity"].(float64)
		cmd.Printf("  [%s] document %s, chunk %d (%.2f)\n", src.ID, src.DocumentID, src.ChunkIndex, score)
	}
}
