package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"field-agent/internal/timeutil"
)

var exportPath string

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Inspect the signed-in employee's collections",
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the reconciled collection list",
	RunE:  runCollectionsList,
}

var collectionsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the collection statement as PDF",
	Long: `Renders the reconciled collection list to a PDF statement with totals
per payment method.

Example:
  fieldagent collections export -u emp1 -p secret --out statement.pdf`,
	RunE: runCollectionsExport,
}

func init() {
	collectionsExportCmd.Flags().StringVarP(&exportPath, "out", "o", "collection-statement.pdf", "Output file")

	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsExportCmd)
}

func runCollectionsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	defer a.Logger.Sync()

	if err := login(ctx, a, true); err != nil {
		return err
	}

	list, err := a.Collections.ListCollections(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCUSTOMER\tPLACE\tBRANCH\tMETHOD\tAMOUNT")
	for _, c := range list.Collections {
		date := c.CreatedAt
		if t, ok := timeutil.ParseTimestamp(c.CreatedAt); ok {
			date = timeutil.FormatIST(t, timeutil.DisplayLayout)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, date, c.CustomerName, c.CustomerPlace, c.BranchName, c.PaymentMethod, c.Amount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d collections (source: %s)\n", len(list.Collections), list.Source)
	return nil
}

func runCollectionsExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	defer a.Logger.Sync()

	if err := login(ctx, a, true); err != nil {
		return err
	}

	pdf, err := a.Reports.GenerateStatementPDF(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportPath, pdf, 0o644); err != nil {
		return fmt.Errorf("write statement: %w", err)
	}
	a.Logger.Info("statement written", zap.String("path", exportPath), zap.Int("bytes", len(pdf)))
	return nil
}
