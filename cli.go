/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Seednode/sizeconv/units"
)

func newConvertCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "convert VALUE FROM TO",
		Short:   "Convert a value from one unit to another",
		Example: "  sizeconv convert 1 GB MB\n  sizeconv convert 1536 KB MB --precision 2",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePrecision(cfg.precision); err != nil {
				return err
			}

			from, err := units.ParseUnit(args[1])
			if err != nil {
				return err
			}
			to, err := units.ParseUnit(args[2])
			if err != nil {
				return err
			}

			res, err := units.ConvertString(args[0], from, to)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Format(cfg.precision))

			return err
		},
	}
}

func newTableCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "table VALUE UNIT",
		Short:   "Show a value in every unit",
		Example: "  sizeconv table 1 GB",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePrecision(cfg.precision); err != nil {
				return err
			}

			from, err := units.ParseUnit(args[1])
			if err != nil {
				return err
			}

			value, err := units.ParseValue(args[0])
			if err != nil {
				return err
			}

			return renderTable(cmd.OutOrStdout(), value, from, cfg.precision)
		},
	}
}

func renderTable(w io.Writer, value float64, from units.Unit, precision int) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Unit", "Bytes per unit", "Value"})

	for _, to := range units.All() {
		res, err := units.Request{Value: value, From: from, To: to}.Convert()
		if err != nil {
			return err
		}

		t.AppendRow(table.Row{
			to.String(),
			units.Group(to.Multiplier(), 0),
			units.Group(res.Value, precision),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})

	if isTerminal(w) {
		t.SetStyle(table.StyleRounded)
		t.Style().Color.Header = text.Colors{text.Bold, text.FgCyan}
	} else {
		t.SetStyle(table.StyleDefault)
	}

	_, err := fmt.Fprintln(w, t.Render())

	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
