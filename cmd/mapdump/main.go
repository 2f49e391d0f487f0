// Command mapdump loads a mapping definition, prints the resolved mapping,
// and optionally parses sample documents against it.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/fieldmap"
	"github.com/hupe1980/fieldmap/mapping"
)

var (
	includeDefaults bool
	verbose         bool
	updateAllTypes  bool
	docID           string
	docRouting      string
)

var rootCmd = &cobra.Command{
	Use:   "mapdump <command>",
	Short: "Inspect field mappings and document parsing",
}

var showCmd = &cobra.Command{
	Use:   "show <mapping.json>",
	Short: "Load a mapping and print its resolved form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadService(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out, err := svc.ExportMapping(cmd.Context(), includeDefaults)
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse <mapping.json> <doc.json>",
	Short: "Parse a document against a mapping and print the emitted entries",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadService(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		source, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		doc, err := svc.ParseDocument(cmd.Context(), docID, docRouting, source)
		if err != nil {
			return err
		}
		for _, f := range doc.Fields() {
			kind := "indexed"
			if f.Kind == mapping.EntryDocValues {
				kind = "doc_values"
			}
			fmt.Printf("%-30s %-10s %v\n", f.Name, kind, f.Value)
		}
		for _, ig := range doc.Ignored() {
			fmt.Printf("%-30s %-10s %v\n", ig.Field, "ignored", ig.Value)
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <mapping.json> <update.json>",
	Short: "Simulate merging an update into a mapping and print conflicts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadService(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		update, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		result, err := svc.ApplyMapping(cmd.Context(), update, fieldmap.ApplyOptions{
			Simulate:       true,
			UpdateAllTypes: updateAllTypes,
		})
		if err != nil {
			return err
		}
		if !result.HasConflicts() {
			fmt.Println("no conflicts")
			return nil
		}
		for _, c := range result.Conflicts() {
			fmt.Println(c)
		}
		os.Exit(1)
		return nil
	},
}

func loadService(ctx context.Context, path string) (*fieldmap.Service, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var opts []fieldmap.Option
	if verbose {
		opts = append(opts, fieldmap.WithLogLevel(slog.LevelDebug))
	}
	svc := fieldmap.New(opts...)
	if _, err := svc.ApplyMapping(ctx, source, fieldmap.ApplyOptions{}); err != nil {
		return nil, err
	}
	return svc, nil
}

func printJSON(raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	fmt.Println(buf.String())
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	showCmd.Flags().BoolVar(&includeDefaults, "include-defaults", false, "include default settings in the output")
	parseCmd.Flags().StringVar(&docID, "id", "1", "document id")
	parseCmd.Flags().StringVar(&docRouting, "routing", "", "routing value")
	checkCmd.Flags().BoolVar(&updateAllTypes, "update-all-types", false, "allow shared-type structural changes")

	rootCmd.AddCommand(showCmd, parseCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
