package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/templui/portfolio/internal/client"
)

func profileCmd() *cobra.Command {
	var form client.ProfileForm
	values := map[string]*string{}

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update profile fields; only the flags given are changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := requireSession(cmd)
			if err != nil {
				return err
			}

			targets := map[string]**string{
				"name":     &form.Name,
				"email":    &form.Email,
				"title":    &form.Title,
				"bio":      &form.Bio,
				"location": &form.Location,
				"website":  &form.Website,
				"github":   &form.Github,
				"linkedin": &form.Linkedin,
				"twitter":  &form.Twitter,
			}
			for name, dst := range targets {
				if cmd.Flags().Changed(name) {
					*dst = values[name]
				}
			}

			err = current.store.UpdateProfile(cmd.Context(), form)
			if err != nil {
				return err
			}

			user := current.store.Snapshot().User
			fmt.Printf("Updated %s (avatar %s)\n", user.Name, user.Avatar)
			return nil
		},
	}

	for _, name := range []string{"name", "email", "title", "bio", "location", "website", "github", "linkedin", "twitter"} {
		v := new(string)
		values[name] = v
		cmd.Flags().StringVar(v, name, "", "set "+name+" (empty clears optional fields)")
	}
	cmd.Flags().StringVar(&form.Avatar, "avatar", "", "path of an image to upload as avatar")
	cmd.Flags().StringVar(&form.CoverImage, "cover", "", "path of an image to upload as cover")
	return cmd
}

func projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List published projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := current.api.Projects(cmd.Context())
			if err != nil {
				return err
			}

			for _, p := range projects {
				fmt.Printf("%-6s %-30s %-20s %s\n", p.ID, p.Title, p.Owner.Name, strings.Join(p.Technologies, ", "))
			}
			return nil
		},
	}
}
