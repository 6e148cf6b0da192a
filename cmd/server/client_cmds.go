package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noahxzhu/interval-alert/internal/config"
	"github.com/noahxzhu/interval-alert/internal/web"
)

type clientFlags struct {
	addr     string
	password string
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.addr, "addr", "", "server URL (default: http://localhost<server.port>)")
	cmd.Flags().StringVar(&f.password, "password", "", "server password (default: server.password)")
}

func (f *clientFlags) client(configPath string) (*web.Client, error) {
	addr, password := f.addr, f.password
	if addr == "" || password == "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if addr == "" {
			addr = baseURL(cfg.Server.Port)
		}
		if password == "" {
			password = cfg.Server.Password
		}
	}
	return web.NewClient(addr, password), nil
}

func baseURL(port string) string {
	if strings.HasPrefix(port, ":") {
		return "http://localhost" + port
	}
	return "http://" + port
}

func newSetCmd(configPath *string) *cobra.Command {
	var (
		flags    clientFlags
		interval string
		message  string
	)
	cmd := &cobra.Command{
		Use:     "set",
		Short:   "Set the repeating alert",
		Example: `  alertd set --interval 30 --message "Drink water"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(*configPath)
			if err != nil {
				return err
			}
			confirmation, err := c.SetAlert(cmd.Context(), interval, message)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), confirmation)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&interval, "interval", "i", "", "interval in seconds")
	cmd.Flags().StringVarP(&message, "message", "m", "", "alert message")
	return cmd
}

func newCancelCmd(configPath *string) *cobra.Command {
	var flags clientFlags
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the active alert",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(*configPath)
			if err != nil {
				return err
			}
			if err := c.Cancel(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Alert cancelled")
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newStatusCmd(configPath *string) *cobra.Command {
	var flags clientFlags
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active alert",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(*configPath)
			if err != nil {
				return err
			}
			reg, err := c.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if reg == nil {
				fmt.Fprintln(out, "No alert scheduled")
				return nil
			}
			fmt.Fprintf(out, "Every %s: %s\n", reg.Interval(), reg.Message)
			fmt.Fprintf(out, "Next: %s (fired %d times)\n", reg.NextTrigger.Local().Format("2006-01-02 15:04:05"), reg.FireCount)
			if reg.LastError != "" {
				fmt.Fprintf(out, "Last delivery failed: %s\n", reg.LastError)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
