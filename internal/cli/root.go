package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the top-level "coachlab" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "coachlab",
		Short:         "Author multi-week coaching courses",
		Long:          "coachlab walks a course from its details through an AI-drafted or hand-built\nweekly structure, materials, coaches and pricing to publication.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCourseCmd(app),
		newMaterialCmd(app),
		newPersonaCmd(app),
	)

	return root
}
