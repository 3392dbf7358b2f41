package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"onepass/internal/app"
	"onepass/internal/model"
)

func newEntryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Manage password entries",
	}
	cmd.AddCommand(
		newEntryListCmd(c),
		newEntryShowCmd(c),
		newEntryAddCmd(c),
		newEntryEditCmd(c),
		newEntryRmCmd(c),
		newEntryFavCmd(c),
		newEntryCopyCmd(c),
	)
	return cmd
}

func newEntryListCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter model.EntryFilter
			flags := cmd.Flags()
			if flags.Changed("group") {
				id, _ := flags.GetString("group")
				filter.GroupID = &id
			}
			filter.Search, _ = flags.GetString("search")
			filter.FavoritesOnly, _ = flags.GetBool("favorites")

			return c.withApp(cmd, "EntryList", func(a *app.App) error {
				entries, err := a.Service().ListEntries(filter)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(c.out, "No entries found.")
					return nil
				}
				names, err := groupLabels(a)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\t \tTITLE\tUSERNAME\tURL\tGROUP")
				for _, e := range entries {
					star := " "
					if e.IsFavorite {
						star = "★"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, star, e.Title, e.Username, e.URL, groupLabel(names, e.GroupID))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringP("group", "g", "", "Only entries in this group id")
	cmd.Flags().StringP("search", "s", "", "Case-insensitive match on title, URL or username")
	cmd.Flags().BoolP("favorites", "f", false, "Only favorites")
	return cmd
}

func newEntryShowCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reveal, _ := cmd.Flags().GetBool("reveal")

			return c.withApp(cmd, "EntryShow", func(a *app.App) error {
				if reveal {
					if err := c.unlock(a); err != nil {
						return err
					}
				}
				e, err := a.Service().GetEntry(args[0])
				if err != nil {
					return err
				}
				names, err := groupLabels(a)
				if err != nil {
					return err
				}
				printEntry(c.out, e, groupLabel(names, e.GroupID), reveal)
				return nil
			})
		},
	}
	cmd.Flags().BoolP("reveal", "r", false, "Print the password")
	return cmd
}

func printEntry(w io.Writer, e *model.Entry, group string, reveal bool) {
	password := "********"
	if reveal {
		password = e.Password
	}
	if e.Password == "" {
		password = ""
	}
	fmt.Fprintf(w, "ID:       %s\n", e.ID)
	fmt.Fprintf(w, "Title:    %s\n", e.Title)
	fmt.Fprintf(w, "Group:    %s\n", group)
	fmt.Fprintf(w, "URL:      %s\n", e.URL)
	fmt.Fprintf(w, "Username: %s\n", e.Username)
	fmt.Fprintf(w, "Password: %s\n", password)
	fmt.Fprintf(w, "Favorite: %v\n", e.IsFavorite)
	fmt.Fprintf(w, "Created:  %s\n", formatTime(e.CreatedAt))
	fmt.Fprintf(w, "Updated:  %s\n", formatTime(e.UpdatedAt))
	if e.Notes != "" {
		fmt.Fprintf(w, "Notes:\n%s\n", e.Notes)
	}
}

func formatTime(ts int64) string {
	return time.Unix(ts, 0).Format("2006-01-02 15:04")
}

func newEntryAddCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			in := model.CreateEntryInput{}
			in.Title, _ = flags.GetString("title")
			for flag, dst := range map[string]**string{
				"group":    &in.GroupID,
				"url":      &in.URL,
				"username": &in.Username,
				"notes":    &in.Notes,
			} {
				if flags.Changed(flag) {
					v, _ := flags.GetString(flag)
					*dst = &v
				}
			}

			return c.withApp(cmd, "EntryAdd", func(a *app.App) error {
				if ask, _ := flags.GetBool("password"); ask {
					pw, err := c.prompt("Entry password: ")
					if err != nil {
						return err
					}
					in.Password = &pw
				}
				e, err := a.Service().CreateEntry(in)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Created entry %s\n", e.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringP("title", "t", "", "Entry title (required)")
	cmd.Flags().StringP("group", "g", "", "Group id")
	cmd.Flags().String("url", "", "Site URL")
	cmd.Flags().StringP("username", "u", "", "Login name")
	cmd.Flags().String("notes", "", "Free-form notes")
	cmd.Flags().BoolP("password", "p", false, "Prompt for the entry password")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newEntryEditCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var patch model.EntryPatch
			for flag, dst := range map[string]*model.Field[string]{
				"title":    &patch.Title,
				"url":      &patch.URL,
				"username": &patch.Username,
				"notes":    &patch.Notes,
			} {
				if flags.Changed(flag) {
					v, _ := flags.GetString(flag)
					*dst = model.Set(v)
				}
			}
			if flags.Changed("favorite") {
				v, _ := flags.GetBool("favorite")
				patch.IsFavorite = model.Set(v)
			}
			if flags.Changed("sort-order") {
				v, _ := flags.GetInt("sort-order")
				patch.SortOrder = model.Set(v)
			}
			ungroup, _ := flags.GetBool("ungroup")
			switch {
			case ungroup && flags.Changed("group"):
				return fmt.Errorf("--group and --ungroup are mutually exclusive")
			case ungroup:
				patch.Group = model.ClearGroup()
			case flags.Changed("group"):
				id, _ := flags.GetString("group")
				patch.Group = model.AssignGroup(id)
			}

			return c.withApp(cmd, "EntryEdit", func(a *app.App) error {
				if ask, _ := flags.GetBool("password"); ask {
					if err := c.unlock(a); err != nil {
						return err
					}
					pw, err := c.prompt("New entry password: ")
					if err != nil {
						return err
					}
					patch.Password = model.Set(pw)
				}
				e, err := a.Service().UpdateEntry(args[0], patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Updated entry %s\n", e.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringP("title", "t", "", "New title")
	cmd.Flags().StringP("group", "g", "", "Move to this group id")
	cmd.Flags().Bool("ungroup", false, "Remove from its group")
	cmd.Flags().String("url", "", "New URL")
	cmd.Flags().StringP("username", "u", "", "New login name")
	cmd.Flags().String("notes", "", "New notes")
	cmd.Flags().Bool("favorite", false, "Set the favorite flag")
	cmd.Flags().Int("sort-order", 0, "New sort position")
	cmd.Flags().BoolP("password", "p", false, "Prompt for a new entry password")
	return cmd
}

func newEntryRmCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, "EntryDelete", func(a *app.App) error {
				if err := a.Service().DeleteEntry(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Deleted entry %s\n", args[0])
				return nil
			})
		},
	}
}

func newEntryFavCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "fav ID",
		Short: "Toggle the favorite flag of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, "EntryFavorite", func(a *app.App) error {
				fav, err := a.Service().ToggleFavorite(args[0])
				if err != nil {
					return err
				}
				if fav {
					fmt.Fprintf(c.out, "Entry %s is now a favorite\n", args[0])
				} else {
					fmt.Fprintf(c.out, "Entry %s is no longer a favorite\n", args[0])
				}
				return nil
			})
		},
	}
}

func newEntryCopyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy ID",
		Short: "Copy an entry's password to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noWait, _ := cmd.Flags().GetBool("no-wait")

			return c.withApp(cmd, "EntryCopy", func(a *app.App) error {
				if err := c.unlock(a); err != nil {
					return err
				}
				clear, delay, err := a.Service().CopyPassword(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, "Password copied.")
				return c.scheduleClear(clear, delay, noWait)
			})
		},
	}
	cmd.Flags().Bool("no-wait", false, "Exit immediately instead of clearing the clipboard")
	return cmd
}

// groupLabels maps group ids to "icon name".
func groupLabels(a *app.App) (map[string]string, error) {
	groups, err := a.Service().ListGroups()
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Icon + " " + g.Name
	}
	return names, nil
}

func groupLabel(names map[string]string, id *string) string {
	if id == nil {
		return "-"
	}
	if name, ok := names[*id]; ok {
		return name
	}
	return *id
}
