package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force, example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new sqlconvert project",
		Long: `Initialize a project with a sqlconvert.yaml configuration and a sql/
directory for the T-SQL scripts to convert.

Use --example to add a procedure, a helper procedure and a view that
show dependency ordering and frontmatter.`,
		Example: `  # Initialize in the current directory
  sqlconvert init

  # Initialize a new directory with example scripts
  sqlconvert init my-project --example

  # Overwrite an existing configuration
  sqlconvert init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			template := "minimal"
			if example {
				template = "example"
			}
			return runInit(NewCommandContext(cmd), dir, template, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&example, "example", false, "Add example T-SQL scripts")
	return cmd
}

func runInit(c *CommandContext, dir, template string, force bool) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sqlconvert.yaml")); err == nil && !force {
		return fmt.Errorf("sqlconvert.yaml already exists. Use --force to overwrite")
	}

	files, err := copyTemplate(template, dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	r := c.Renderer
	for _, f := range files {
		r.Success(f)
	}
	r.Println()
	r.Println("Next steps:")
	r.Println("  1. Add T-SQL scripts to sql/")
	r.Println("  2. Run 'sqlconvert deps sql' to check the dependency order")
	r.Println("  3. Run 'sqlconvert convert sql --to postgres' to convert them")
	return nil
}
