package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mtest/internal/config"
	"mtest/internal/control"
	"mtest/internal/farm"
)

// DBCommand manages databases through the daemon control channel
type DBCommand struct {
	config *config.Config

	host       string
	port       int
	passphrase string
	fresh      bool
}

// NewDBCommand creates a new DBCommand
func NewDBCommand(cfg *config.Config) *DBCommand {
	return &DBCommand{config: cfg}
}

// client builds the control client. Flags override the configured control
// settings, unset flags fall back to the layered config.
func (dc *DBCommand) client(ctx context.Context) (*control.Client, error) {
	host := dc.host
	if host == "" {
		host = dc.config.Options.Hostname
	}
	port := dc.port
	if port == 0 {
		port = dc.config.Port
	}
	passphrase := dc.passphrase
	if passphrase == "" {
		passphrase = dc.config.Passphrase
	}

	return control.New(ctx, control.Config{
		Hostname:   host,
		Port:       port,
		Passphrase: passphrase,
	})
}

// Command builds the db command tree
func (dc *DBCommand) Command(loadConfig func(*cobra.Command, []string) error) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:               "db",
		Short:             "Manage databases through the daemon control channel",
		Long:              "Send lifecycle, status and property commands to the monetdbd control channel",
		PersistentPreRunE: loadConfig,
	}
	dbCmd.PersistentFlags().StringVar(&dc.host, "host", "", "Daemon host (default: the configured suite hostname)")
	dbCmd.PersistentFlags().IntVar(&dc.port, "port", 0, "Daemon control port (default: TSTPORT or 50000)")
	dbCmd.PersistentFlags().StringVar(&dc.passphrase, "passphrase", "", "Daemon control passphrase (default: TSTPASSPHRASE)")

	lifecycle := []struct {
		use   string
		short string
		call  func(context.Context, *control.Client, string) error
	}{
		{"create", "Create a database in the daemon's farm", func(ctx context.Context, c *control.Client, db string) error { return c.Create(ctx, db) }},
		{"destroy", "Remove a database including all its data", func(ctx context.Context, c *control.Client, db string) error { return c.Destroy(ctx, db) }},
		{"lock", "Put a database in maintenance mode", func(ctx context.Context, c *control.Client, db string) error { return c.Lock(ctx, db) }},
		{"release", "Bring a database back from maintenance mode", func(ctx context.Context, c *control.Client, db string) error { return c.Release(ctx, db) }},
		{"start", "Start a database", func(ctx context.Context, c *control.Client, db string) error { return c.Start(ctx, db) }},
		{"stop", "Stop a database", func(ctx context.Context, c *control.Client, db string) error { return c.Stop(ctx, db) }},
		{"kill", "Kill a database's server process", func(ctx context.Context, c *control.Client, db string) error { return c.Kill(ctx, db) }},
	}

	for _, lc := range lifecycle {
		sub := &cobra.Command{
			Use:   lc.use + " <database>",
			Short: lc.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := dc.client(cmd.Context())
				if err != nil {
					return err
				}
				if err := lc.call(cmd.Context(), client, args[0]); err != nil {
					return err
				}
				color.Green("✓ %s %s", lc.use, args[0])
				return nil
			},
		}
		dbCmd.AddCommand(sub)
	}

	statusCmd := &cobra.Command{
		Use:   "status [database]",
		Short: "Show the status of one database or the whole farm",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := dc.client(cmd.Context())
			if err != nil {
				return err
			}

			var statuses []control.Status
			if len(args) == 1 {
				status, err := client.Status(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				statuses = []control.Status{status}
			} else {
				statuses, err = client.StatusAll(cmd.Context())
				if err != nil {
					return err
				}
				if len(statuses) == 0 {
					color.Yellow("No databases in the farm")
					return nil
				}
			}

			printStatusTable(cmd.OutOrStdout(), statuses)
			return nil
		},
	}
	dbCmd.AddCommand(statusCmd)

	getCmd := &cobra.Command{
		Use:   "get <database>",
		Short: "Show the properties set on a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := dc.client(cmd.Context())
			if err != nil {
				return err
			}
			values, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printProperties(cmd.OutOrStdout(), values)
			return nil
		},
	}
	dbCmd.AddCommand(getCmd)

	setCmd := &cobra.Command{
		Use:   "set <database> <property>=<value>",
		Short: "Set a property on a database (empty value inherits the default)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			property, value, ok := strings.Cut(args[1], "=")
			if !ok {
				return fmt.Errorf("expected <property>=<value>, got %q", args[1])
			}

			client, err := dc.client(cmd.Context())
			if err != nil {
				return err
			}

			if value == "" {
				if err := client.Inherit(cmd.Context(), args[0], property); err != nil {
					return err
				}
				color.Green("✓ %s now inherits %s", args[0], property)
				return nil
			}

			if err := client.Set(cmd.Context(), args[0], property, value); err != nil {
				return err
			}
			color.Green("✓ %s %s=%s", args[0], property, value)
			return nil
		},
	}
	dbCmd.AddCommand(setCmd)

	prepareCmd := &cobra.Command{
		Use:   "prepare [database]",
		Short: "Ensure a database exists, is released and runs",
		Long:  "Bring the named database (default: the configured suite database) to a running state, creating and releasing it as needed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database := dc.config.Options.Database
			if len(args) == 1 {
				database = args[0]
			}

			client, err := dc.client(cmd.Context())
			if err != nil {
				return err
			}

			preparer := farm.NewPreparer(client, database)
			return preparer.Prepare(cmd.Context(), dc.fresh)
		},
	}
	prepareCmd.Flags().BoolVar(&dc.fresh, "fresh", false, "Destroy and recreate the database first")
	dbCmd.AddCommand(prepareCmd)

	return dbCmd
}

func printStatusTable(w io.Writer, statuses []control.Status) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATE\tSTARTS\tCRASHES\tAVG UPTIME\tLAST START")
	for _, st := range statuses {
		state := st.State.String()
		if st.Locked {
			state += " (locked)"
		}
		lastStart := "-"
		if st.LastStart != nil {
			lastStart = st.LastStart.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			st.Name, state, st.StartCounter, st.CrashCounter, st.AvgUptime, lastStart)
	}
	tw.Flush()
}

func printProperties(w io.Writer, values map[string]string) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROPERTY\tVALUE")
	for _, key := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", key, values[key])
	}
	tw.Flush()
}
