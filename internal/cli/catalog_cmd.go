package cli

import (
	"fmt"

	"github.com/alexanderramin/coachlab/internal/cli/formatter"
	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/spf13/cobra"
)

func newMaterialCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "material",
		Short: "Manage your material library",
	}
	cmd.AddCommand(newMaterialAddCmd(app), newMaterialListCmd(app))
	return cmd
}

func newMaterialAddCmd(app *App) *cobra.Command {
	var title, typ, description, category string
	var tags []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a material to the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := &domain.Material{
				OwnerID:     app.OwnerID,
				Title:       title,
				Type:        domain.MaterialType(typ),
				Description: description,
				Category:    category,
				Tags:        tags,
			}
			if err := app.Catalog.AddMaterial(cmd.Context(), m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added material %s [%s]\n", m.Title, formatter.TruncID(m.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Material title")
	cmd.Flags().StringVar(&typ, "type", "", "audio, video, pdf or text")
	cmd.Flags().StringVar(&description, "description", "", "Short description")
	cmd.Flags().StringVar(&category, "category", "", "Category")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Tag (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newMaterialListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the material library",
		RunE: func(cmd *cobra.Command, args []string) error {
			materials, err := app.Catalog.ListMaterials(cmd.Context(), app.OwnerID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMaterialList(materials, nil))
			return nil
		},
	}
}

func newPersonaCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "persona",
		Aliases: []string{"coach"},
		Short:   "Manage AI coach personas",
	}
	cmd.AddCommand(newPersonaAddCmd(app), newPersonaListCmd(app))
	return cmd
}

func newPersonaAddCmd(app *App) *cobra.Command {
	var name, style, prompt string
	var tones []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a coach persona",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &domain.Persona{
				OwnerID:       app.OwnerID,
				Name:          name,
				ToneTags:      tones,
				ResponseStyle: style,
				SystemPrompt:  prompt,
			}
			if err := app.Catalog.AddPersona(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added coach %s [%s]\n", p.Name, formatter.TruncID(p.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Coach name")
	cmd.Flags().StringArrayVar(&tones, "tone", nil, "Tone tag (repeatable)")
	cmd.Flags().StringVar(&style, "style", "", "Response style")
	cmd.Flags().StringVar(&prompt, "prompt", "", "System prompt")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newPersonaListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List coach personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			personas, err := app.Catalog.ListPersonas(cmd.Context(), app.OwnerID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPersonaList(personas, nil))
			return nil
		},
	}
}
