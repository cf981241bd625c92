// manaractl is the admin CLI for the Manara site API: it renders the
// directors org chart and performs the back-office CRUD operations
// through the shared resilient client.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	appdirectors "manara-client/application/directors"
	"manara-client/domain/directors"
	"manara-client/infrastructure/config"
	"manara-client/infrastructure/di"
	apperrors "manara-client/pkg/errors"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "manaractl",
		Short:         "Admin CLI for the Manara site API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(treeCmd())
	rootCmd.AddCommand(directorsCmd())
	rootCmd.AddCommand(newsCmd())

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func getContainer() (*di.Container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return di.InitializeContainer(cfg)
}

func treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the directors org chart",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			index, err := c.Directors.FetchTree(cmd.Context())
			if err != nil {
				return err
			}
			for _, root := range index.Roots() {
				printNode(cmd, root, 0)
			}
			return nil
		},
	}
}

func printNode(cmd *cobra.Command, node *directors.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	cmd.Printf("%s- %s (%s) [#%d]\n", indent, node.Name, node.Position, node.ID)
	for _, child := range node.Children {
		printNode(cmd, child, depth+1)
	}
}

func directorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directors",
		Short: "Manage director positions",
	}
	cmd.AddCommand(directorsCreateCmd())
	cmd.AddCommand(directorsUpdateCmd())
	cmd.AddCommand(directorsDeleteCmd())
	return cmd
}

func directorsCreateCmd() *cobra.Command {
	var name, position, imagePath string
	var parentID int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a director position",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			input := appdirectors.CreateInput{Name: name, Position: position}
			if cmd.Flags().Changed("parent") {
				input.ParentID = &parentID
			}
			if imagePath != "" {
				upload, err := readUpload(imagePath)
				if err != nil {
					return err
				}
				input.Image = upload
			}
			if err := c.Directors.Create(cmd.Context(), input); err != nil {
				return err
			}
			cmd.Println("director created")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "director name (required)")
	cmd.Flags().StringVar(&position, "position", "", "director title (required)")
	cmd.Flags().Int64Var(&parentID, "parent", 0, "parent director id (omit for root)")
	cmd.Flags().StringVar(&imagePath, "image", "", "path to a portrait image")
	return cmd
}

func directorsUpdateCmd() *cobra.Command {
	var name, position, imagePath string
	var parentID int64
	var makeRoot bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a director position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := getContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			var input appdirectors.UpdateInput
			if cmd.Flags().Changed("name") {
				input.Name = &name
			}
			if cmd.Flags().Changed("position") {
				input.Position = &position
			}
			if cmd.Flags().Changed("parent") {
				input.ParentID = &parentID
			}
			input.MakeRoot = makeRoot
			if imagePath != "" {
				upload, err := readUpload(imagePath)
				if err != nil {
					return err
				}
				input.Image = upload
			}
			if err := c.Directors.Update(cmd.Context(), id, input); err != nil {
				return err
			}
			cmd.Println("director updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&position, "position", "", "new title")
	cmd.Flags().Int64Var(&parentID, "parent", 0, "new parent director id")
	cmd.Flags().BoolVar(&makeRoot, "make-root", false, "move to the top level")
	cmd.Flags().StringVar(&imagePath, "image", "", "path to a replacement portrait image")
	return cmd
}

func directorsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a director position (irreversible)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd, fmt.Sprintf("delete director #%d? this cannot be undone", id)) {
				cmd.Println("aborted")
				return nil
			}
			c, err := getContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Directors.Delete(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Println("director deleted")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news",
		Short: "Browse news articles",
	}

	var page int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List news articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.Content.ListNews(cmd.Context(), page)
			if err != nil {
				return err
			}
			for _, item := range result.Items {
				cmd.Printf("#%d  %s\n", item.ID, item.Title)
			}
			if result.Meta != nil {
				cmd.Printf("page %d of %d (%d total)\n", result.Meta.CurrentPage, result.Meta.LastPage, result.Meta.Total)
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.AddCommand(listCmd)
	return cmd
}

func parseID(arg string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(arg, "%d", &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func readUpload(path string) (*appdirectors.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image %s: %w", path, err)
	}
	return &appdirectors.Upload{Filename: strings.TrimPrefix(path, "./"), Content: data}, nil
}

func confirm(cmd *cobra.Command, prompt string) bool {
	cmd.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	answer, _ := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// printError renders field-level validation maps the way the back office
// displays them: first message per field.
func printError(err error) {
	if fields := apperrors.FieldErrors(err); len(fields) > 0 {
		fmt.Fprintln(os.Stderr, "validation failed:")
		for field, messages := range fields {
			if len(messages) > 0 {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", field, messages[0])
			}
		}
		return
	}
	fmt.Fprintln(os.Stderr, "error:", err)
}
