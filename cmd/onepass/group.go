package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"onepass/internal/app"
	"onepass/internal/model"
)

func newGroupCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List groups with their entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, "GroupList", func(a *app.App) error {
				groups, err := a.Service().ListGroups()
				if err != nil {
					return err
				}
				counts, err := a.Service().EntryCountsByGroup()
				if err != nil {
					return err
				}
				if len(groups) == 0 {
					fmt.Fprintln(c.out, "No groups.")
					return nil
				}
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tGROUP\tENTRIES")
				for _, g := range groups {
					fmt.Fprintf(tw, "%s\t%s %s\t%d\n", g.ID, g.Icon, g.Name, counts[g.ID])
				}
				return tw.Flush()
			})
		},
	}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var icon *string
			if cmd.Flags().Changed("icon") {
				v, _ := cmd.Flags().GetString("icon")
				icon = &v
			}
			return c.withApp(cmd, "GroupAdd", func(a *app.App) error {
				g, err := a.Service().CreateGroup(args[0], icon)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Created group %s %s (%s)\n", g.Icon, g.Name, g.ID)
				return nil
			})
		},
	}
	add.Flags().StringP("icon", "i", "", "Group icon (default "+model.DefaultGroupIcon+")")

	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Rename a group or change its icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.GroupPatch
			if cmd.Flags().Changed("name") {
				v, _ := cmd.Flags().GetString("name")
				patch.Name = model.Set(v)
			}
			if cmd.Flags().Changed("icon") {
				v, _ := cmd.Flags().GetString("icon")
				patch.Icon = model.Set(v)
			}
			return c.withApp(cmd, "GroupEdit", func(a *app.App) error {
				g, err := a.Service().UpdateGroup(args[0], patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Updated group %s %s\n", g.Icon, g.Name)
				return nil
			})
		},
	}
	edit.Flags().StringP("name", "n", "", "New name")
	edit.Flags().StringP("icon", "i", "", "New icon")

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a group; its entries become ungrouped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, "GroupDelete", func(a *app.App) error {
				if err := a.Service().DeleteGroup(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Deleted group %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, edit, rm)
	return cmd
}
