package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/Previo/internal/model"
	"github.com/dharsanguruparan/Previo/internal/report"
)

// renderInput is the JSON accepted by `previo render`. Products are schema
// tagged records, so legacy exports render too.
type renderInput struct {
	Header   model.ShipmentHeader  `json:"header"`
	Products []model.ProductRecord `json:"products"`
}

func newRenderCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "render <input.json>",
		Short: "Render a previo report from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var in renderInput
			if err := json.Unmarshal(raw, &in); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			data, err := report.New().RenderRecords(in.Header, in.Products)
			if err != nil {
				return err
			}
			if out == "" {
				out = report.Filename(in.Header)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d products)\n", out, len(in.Products))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (defaults to previo_{entry}.pdf)")
	return cmd
}

func newInspectCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "inspect <report.pdf>",
		Short: "Print the page count and text of a rendered report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			pages, err := report.Pages(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pages: %d\n", len(pages))
			if quiet {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.ArchiveContent(pages))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the page count")
	return cmd
}
