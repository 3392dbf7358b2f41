package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"onepass/internal/app"
	"onepass/internal/config"
	"onepass/internal/keeper"
	"onepass/internal/model"
)

func main() {
	c := &cli{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	c.dialogs = &app.TerminalDialogs{In: c.in, Out: c.errOut}
	if err := newRootCmd(c).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// cli holds what commands share. Outside the shell every command opens its
// own App; inside it, all commands run against the shell's App.
type cli struct {
	in      *os.File
	out     io.Writer
	errOut  io.Writer
	dialogs *app.TerminalDialogs
	shell   *app.App

	// pendingClears run when the shell exits.
	pendingClears []func() error
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:          "onepass",
		Short:        "Local password manager",
		SilenceUsage: true,
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.AddCommand(
		newInitCmd(c),
		newPasswdCmd(c),
		newEntryCmd(c),
		newGroupCmd(c),
		newSettingsCmd(c),
		newExportCmd(c),
		newImportCmd(c),
		newBackupCmd(c),
		newConfigCmd(c),
		newShellCmd(c),
	)
	wrapRunE(root, c)
	return root
}

// wrapRunE turns a dismissed dialog into a quiet success for every command
// in the tree.
func wrapRunE(cmd *cobra.Command, c *cli) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if errors.Is(err, keeper.ErrCancelled) {
				fmt.Fprintln(c.out, "Cancelled.")
				return nil
			}
			return err
		}
	}
	for _, sub := range cmd.Commands() {
		wrapRunE(sub, c)
	}
}

func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.Load(defaults["config_path"], defaults["base_dir"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

func (c *cli) openApp(ctx context.Context, operation string) (*app.App, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	host := app.Host{Dialogs: c.dialogs, Clipboard: app.NewSystemClipboard()}
	a, err := app.NewApp(ctx, cfg, operation, host)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// withApp runs fn against the shell's App, or against a fresh App that is
// closed afterwards.
func (c *cli) withApp(cmd *cobra.Command, operation string, fn func(a *app.App) error) error {
	if c.shell != nil {
		return fn(c.shell)
	}
	a, err := c.openApp(cmd.Context(), operation)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(a); err != nil {
		a.Fail(err)
		return err
	}
	return nil
}

func (c *cli) prompt(label string) (string, error) {
	return app.PromptSecret(c.in, c.errOut, label)
}

// unlock makes sure the session is unlocked, asking for the master password
// when it is not.
func (c *cli) unlock(a *app.App) error {
	session := a.Service().Session()
	if session.IsUnlocked() {
		session.Touch()
		return nil
	}
	pw, err := c.prompt("Master password: ")
	if err != nil {
		return err
	}
	return a.Service().Unlock(pw)
}

// promptNewPassword asks for a password twice.
func (c *cli) promptNewPassword(label string) (string, error) {
	pw, err := c.prompt(label + ": ")
	if err != nil {
		return "", err
	}
	confirm, err := c.prompt("Confirm " + strings.ToLower(label) + ": ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}

func newInitCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Set the master password of a new vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, "Init", func(a *app.App) error {
				if a.Service().CheckInitialized() {
					return errors.New("vault already initialized; use passwd to change the master password")
				}
				pw, err := c.promptNewPassword("Master password")
				if err != nil {
					return err
				}
				if err := a.Service().SetupPassword(pw); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Vault initialized at %s\n", a.Config().DatabasePath())
				return nil
			})
		},
	}
}

func newPasswdCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the master password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, "ChangePassword", func(a *app.App) error {
				old, err := c.prompt("Current master password: ")
				if err != nil {
					return err
				}
				pw, err := c.promptNewPassword("New master password")
				if err != nil {
					return err
				}
				if err := a.Service().ChangePassword(old, pw); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "Master password changed.")
				return nil
			})
		},
	}
}

func newSettingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "View or change settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, "SettingsShow", func(a *app.App) error {
				st, err := a.Service().GetSettings()
				if err != nil {
					return err
				}
				printSettings(c.out, st)
				return nil
			})
		},
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, "SettingsSet", func(a *app.App) error {
				st, err := a.Service().GetSettings()
				if err != nil {
					return err
				}
				flags := cmd.Flags()
				if flags.Changed("auto-lock") {
					st.AutoLockMinutes, _ = flags.GetInt("auto-lock")
				}
				if flags.Changed("clear-clipboard") {
					st.ClearClipboardSeconds, _ = flags.GetInt("clear-clipboard")
				}
				if flags.Changed("theme") {
					st.Theme, _ = flags.GetString("theme")
				}
				if err := a.Service().UpdateSettings(st); err != nil {
					return err
				}
				printSettings(c.out, st)
				return nil
			})
		},
	}
	set.Flags().Int("auto-lock", 0, "Minutes of inactivity before the vault locks (0 disables)")
	set.Flags().Int("clear-clipboard", 0, "Seconds before a copied password is cleared (0 disables)")
	set.Flags().String("theme", "", "UI theme")

	cmd.AddCommand(show, set)
	return cmd
}

func printSettings(w io.Writer, st model.Settings) {
	fmt.Fprintf(w, "Auto-lock:       %d min\n", st.AutoLockMinutes)
	fmt.Fprintf(w, "Clear clipboard: %d s\n", st.ClearClipboardSeconds)
	fmt.Fprintf(w, "Theme:           %s\n", st.Theme)
}

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults, err := app.GetDefaults()
			if err != nil {
				return fmt.Errorf("getting defaults: %w", err)
			}
			if err := config.Init(defaults["config_path"], config.NewConfig(defaults["base_dir"])); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Configuration initialized at %s\n", defaults["config_path"])
			fmt.Fprintf(c.out, "Data Dir: %s\n", defaults["base_dir"])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "View the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			shown := *cfg
			if shown.Backup.S3SecretKey != "" {
				shown.Backup.S3SecretKey = "********"
			}
			fmt.Fprintf(c.out, "# Configuration from %s\n\n", path)
			m := &config.Manager{}
			return m.Write(c.out, &shown)
		},
	}

	cmd.AddCommand(initCmd, list)
	return cmd
}

func newShellCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively while the vault stays unlocked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.shell != nil {
				return errors.New("already in a shell")
			}
			a, err := c.openApp(cmd.Context(), "Shell")
			if err != nil {
				return err
			}
			defer a.Close()

			sc := &cli{in: c.in, out: c.out, errOut: c.errOut, dialogs: c.dialogs, shell: a}
			defer sc.runPendingClears()

			if err := sc.unlock(a); err != nil {
				a.Fail(err)
				return err
			}
			return sc.loop(cmd.Context(), a)
		},
	}
}

func (c *cli) loop(ctx context.Context, a *app.App) error {
	for {
		fmt.Fprint(c.out, "onepass> ")
		line, err := app.ReadLine(c.in)
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(c.out)
			return nil
		}

		args, splitErr := shlex.Split(line)
		switch {
		case splitErr != nil:
			fmt.Fprintf(c.errOut, "Error: %v\n", splitErr)
			continue
		case len(args) == 0:
			continue
		case args[0] == "exit" || args[0] == "quit":
			return nil
		}

		if !a.Service().Session().IsUnlocked() {
			fmt.Fprintln(c.out, "Vault locked after inactivity.")
			if err := c.unlock(a); err != nil {
				fmt.Fprintf(c.errOut, "Error: %v\n", err)
				continue
			}
		}
		a.Service().Session().Touch()

		sub := newRootCmd(c)
		sub.SetArgs(args)
		// cobra has already printed the error; the shell keeps going.
		_ = sub.ExecuteContext(ctx)

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// scheduleClear runs clear after delay. In the shell it runs in the
// background; otherwise the command waits for it unless noWait is set.
func (c *cli) scheduleClear(clear func() error, delay time.Duration, noWait bool) error {
	if delay == 0 {
		return nil
	}
	if c.shell != nil {
		c.pendingClears = append(c.pendingClears, clear)
		time.AfterFunc(delay, func() { _ = clear() })
		fmt.Fprintf(c.out, "Clipboard clears in %s.\n", delay)
		return nil
	}
	if noWait {
		fmt.Fprintln(c.out, "Clipboard will not be cleared automatically.")
		return nil
	}
	fmt.Fprintf(c.out, "Clipboard clears in %s...\n", delay)
	time.Sleep(delay)
	return clear()
}

func (c *cli) runPendingClears() {
	for _, clear := range c.pendingClears {
		_ = clear()
	}
	c.pendingClears = nil
}
