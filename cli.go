package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/km-arc/go-ioc/framework/app"
	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/game"
)

type cli struct {
	rootCmd *cobra.Command
	out     io.Writer

	envFiles []string
}

func newCLI(out io.Writer) *cli {
	c := &cli{out: out}
	c.rootCmd = &cobra.Command{
		Use:           "go-ioc",
		Short:         "go-ioc builds the demo game container and inspects or serves it",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c.rootCmd.SetOut(out)
	c.rootCmd.PersistentFlags().StringSliceVar(&c.envFiles, "env", nil, "dotenv files to load (default .env)")

	c.rootCmd.AddCommand(c.inspectCmd(), c.playCmd(), c.serveCmd())
	return c
}

func (c *cli) Exec() error {
	return c.rootCmd.Execute()
}

func (c *cli) boot() (*app.Application, error) {
	return app.New(config.Load(c.envFiles...), game.NewModule(nil))
}

func (c *cli) inspectCmd() *cobra.Command {
	var (
		dump     bool
		lifetime string
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List every binding of the built container",
		RunE: func(*cobra.Command, []string) error {
			a, err := c.boot()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tNAME\tLIFETIME\tLAZY\tCREATED")
			var infos []container.ProviderInfo
			for _, p := range a.Providers() {
				if lifetime != "" && p.Lifetime().String() != lifetime {
					continue
				}
				info := container.Describe(p)
				infos = append(infos, info)
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\n", info.Type, info.Name, info.Lifetime, info.Lazy, info.Created)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if dump {
				scs := spew.NewDefaultConfig()
				scs.Indent = "\t"
				scs.DisablePointerAddresses = true
				scs.Fdump(c.out, infos)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "also dump the full binding descriptions")
	cmd.Flags().StringVar(&lifetime, "lifetime", "", "only show static, singleton or transient bindings")
	return cmd
}

func (c *cli) playCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play [key...]",
		Short: "Run one frame per key (left, right, fire) and print each frame",
		RunE: func(_ *cobra.Command, keys []string) error {
			a, err := c.boot()
			if err != nil {
				return err
			}
			frames, err := game.Play(a.Container, keys...)
			for _, f := range frames {
				fmt.Fprintln(c.out, f)
			}
			if err != nil {
				return err
			}

			rec, err := a.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s\n", rec.Render(true))
			return nil
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the container inspector on APP_PORT",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.boot()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
}
