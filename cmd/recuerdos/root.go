package main

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AnshRaj112/recuerdos-backend/pkg/client"
)

const userAgent = "recuerdos-cli/1.0"

// cli carries the per-invocation config shared by every subcommand.
type cli struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	c.v.SetEnvPrefix("RECUERDOS")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "recuerdos",
		Short:         "Manage your recuerdos from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("api-url", client.DefaultBaseURL, "base URL of the recuerdos API")
	flags.Duration("timeout", client.DefaultTimeout, "per-request timeout")
	flags.String("user", "", "owner id used for every request")
	flags.Bool("json", false, "print raw JSON instead of a table")
	for _, name := range []string{"api-url", "timeout", "user", "json"} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		c.listCmd(),
		c.getCmd(),
		c.createCmd(),
		c.updateCmd(),
		c.deleteCmd(),
		c.searchCmd(),
		c.monthCmd(),
		c.statsCmd(),
	)
	return root
}

func (c *cli) client() *client.Client {
	return client.New(c.v.GetString("api-url"),
		client.WithTimeout(c.v.GetDuration("timeout")),
		client.WithUserAgent(userAgent),
	)
}

func (c *cli) user() string {
	return strings.TrimSpace(c.v.GetString("user"))
}

func (c *cli) jsonOutput() bool {
	return c.v.GetBool("json")
}

// context bounds the whole command a little past the client timeout so the
// client's own timeout error wins.
func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, c.v.GetDuration("timeout")+time.Second)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
