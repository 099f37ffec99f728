package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	stripewebhooks "github.com/goliatone/go-stripe-webhooks"
	"github.com/goliatone/go-stripe-webhooks/core"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type cliOptions struct {
	configPath string
	listenAddr string
	debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "stripe-webhooks",
		Short:         "Verify and dispatch Stripe webhook events",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "TOML configuration file")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable development logging")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the webhook entry point",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := fx.New(appOptions(opts)...)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
	serve.Flags().StringVar(&opts.listenAddr, "listen", ":8080", "HTTP listen address")

	tables := &cobra.Command{
		Use:   "tables",
		Short: "Print the dispatch tables built from the registered components",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var module *stripewebhooks.Module
			app := fx.New(append(baseOptions(opts), fx.NopLogger, fx.Populate(&module))...)
			if err := app.Err(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = app.Stop(ctx) }()
			return printTables(cmd.OutOrStdout(), module)
		},
	}

	root.AddCommand(serve, tables)
	return root
}

func printTables(out io.Writer, module *stripewebhooks.Module) error {
	if !module.Enabled() {
		_, err := fmt.Fprintf(out, "webhooks %s\n", module.State())
		return err
	}
	for _, namespace := range core.Namespaces() {
		table := module.Tables().Table(namespace)
		if _, err := fmt.Fprintf(out, "%s (%d handlers)\n", namespace, table.Len()); err != nil {
			return err
		}
		for _, eventType := range table.SortedEventTypes() {
			handlers := []string{}
			for _, binding := range table.Lookup(eventType) {
				handlers = append(handlers, binding.Owner+"."+binding.Method)
			}
			sort.Strings(handlers)
			if _, err := fmt.Fprintf(out, "  %s -> %v\n", eventType, handlers); err != nil {
				return err
			}
		}
	}
	return nil
}
