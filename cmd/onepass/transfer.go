package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"onepass/internal/app"
	"onepass/internal/model"
)

func newExportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the vault",
	}

	export := func(use, short, operation, defaultName string, produce func(a *app.App) ([]byte, error)) *cobra.Command {
		sub := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				out, _ := cmd.Flags().GetString("out")
				return c.withApp(cmd, operation, func(a *app.App) error {
					if err := c.unlock(a); err != nil {
						return err
					}
					content, err := produce(a)
					if err != nil {
						return err
					}
					c.dialogs.Path = out
					defer func() { c.dialogs.Path = "" }()
					path, err := a.Service().SaveExport(content, defaultName)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.out, "Exported to %s\n", path)
					return nil
				})
			},
		}
		sub.Flags().StringP("out", "o", "", "Destination file (prompted when omitted)")
		return sub
	}

	date := time.Now().Format("2006-01-02")
	cmd.AddCommand(
		export("json", "Export as a JSON backup file", "ExportJSON", "onepass-backup-"+date+".json",
			func(a *app.App) ([]byte, error) { return a.Service().ExportJSON() }),
		export("xlsx", "Export as a spreadsheet", "ExportSpreadsheet", "onepass-export-"+date+".xlsx",
			func(a *app.App) ([]byte, error) { return a.Service().ExportSpreadsheet() }),
	)
	return cmd
}

func newImportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			merge, _ := cmd.Flags().GetBool("merge")

			return c.withApp(cmd, "Import", func(a *app.App) error {
				if err := c.unlock(a); err != nil {
					return err
				}
				c.dialogs.Path = file
				defer func() { c.dialogs.Path = "" }()
				data, err := a.Service().LoadImportFile()
				if err != nil {
					return err
				}
				res, err := a.Import(data, merge)
				if err != nil {
					return err
				}
				printImportResult(c, res)
				return nil
			})
		},
	}
	cmd.Flags().StringP("file", "f", "", "Backup file (prompted when omitted)")
	cmd.Flags().BoolP("merge", "m", false, "Keep existing data and skip ids already present")
	return cmd
}

func printImportResult(c *cli, res model.ImportResult) {
	fmt.Fprintf(c.out, "Imported %d group(s) and %d entry(ies)\n", res.GroupsImported, res.EntriesImported)
}

func newBackupCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage encrypted backups",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Store an encrypted backup of the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, "BackupCreate", func(a *app.App) error {
				pw, err := c.prompt("Master password: ")
				if err != nil {
					return err
				}
				name, err := a.Service().CreateBackup(pw)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Stored backup %s in %s\n", name, a.Config().Backup.Name)
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, "BackupList", func(a *app.App) error {
				names, err := a.Service().ListBackups()
				if err != nil {
					return err
				}
				if len(names) == 0 {
					fmt.Fprintln(c.out, "No backups.")
					return nil
				}
				for _, n := range names {
					fmt.Fprintln(c.out, n)
				}
				return nil
			})
		},
	}

	restore := &cobra.Command{
		Use:   "restore NAME",
		Short: "Restore the vault from a stored backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merge, _ := cmd.Flags().GetBool("merge")
			return c.withApp(cmd, "BackupRestore", func(a *app.App) error {
				pw, err := c.prompt("Backup passphrase: ")
				if err != nil {
					return err
				}
				res, err := a.RestoreBackup(args[0], pw, merge)
				if err != nil {
					return err
				}
				printImportResult(c, res)
				return nil
			})
		},
	}
	restore.Flags().BoolP("merge", "m", false, "Keep existing data and skip ids already present")

	check := &cobra.Command{
		Use:   "check",
		Short: "Verify the backup store is reachable and writable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, "BackupCheck", func(a *app.App) error {
				if err := a.CheckBackupStore(); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Backup store %s is ready.\n", a.Config().Backup.Name)
				return nil
			})
		},
	}

	cmd.AddCommand(create, list, restore, check)
	return cmd
}
