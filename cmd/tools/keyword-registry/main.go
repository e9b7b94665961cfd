// cmd/tools/keyword-registry/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"helpro-nlp/internal/nlp"
	"helpro-nlp/pkg/registry"
)

const defaultPath = "configs/keywords.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "keyword-registry",
		Short: "Maintain the keyword tables used by the NLP service",
		Long: `keyword-registry exports, validates and edits the keyword registry file
that the NLP service loads through nlp.keywords_path. Files ending in .json are
read and written as JSON, anything else as YAML.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newExportCmd(),
		newValidateCmd(),
		newAddCmd(),
		newSearchCmd(),
		newAnalyzeCmd(),
	)
	return root
}

func newExportCmd() *cobra.Command {
	var path, version string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the built-in keyword tables to a registry file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := nlp.DefaultTables().ToRegistry(version)
			if err := registry.SaveRegistry(reg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d categories to %s\n", len(reg.Categories), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", defaultPath, "registry file to write")
	cmd.Flags().StringVar(&version, "version", "1.0.0", "registry version")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a registry file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if _, err := nlp.TablesFromRegistry(reg); err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d categories and %d keywords.\n",
				len(reg.Categories), len(reg.Entries()))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", defaultPath, "registry file to check")
	return cmd
}

func newAddCmd() *cobra.Command {
	var path, locale, intent, category, keyword string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a keyword to an intent or category",
		Example: `  keyword-registry add --intent BOOK_SERVICE --locale sv --keyword "fönsterputs"
  keyword-registry add --category cleaning --locale en --keyword "deep clean"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (intent == "") == (category == "") {
				return errors.New("exactly one of --intent or --category is required")
			}

			reg, err := loadOrDefault(path)
			if err != nil {
				return err
			}

			if intent != "" {
				err = reg.AddIntentKeyword(locale, intent, keyword)
			} else {
				err = reg.AddCategoryKeyword(category, locale, keyword)
			}
			if err != nil {
				return err
			}
			if _, err := nlp.TablesFromRegistry(reg); err != nil {
				return err
			}

			reg.Touch()
			if err := registry.SaveRegistry(reg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %s\n", keyword, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", defaultPath, "registry file to edit")
	cmd.Flags().StringVar(&locale, "locale", registry.FallbackLocale, "keyword locale")
	cmd.Flags().StringVar(&intent, "intent", "", "intent to extend")
	cmd.Flags().StringVar(&category, "category", "", "category id to extend")
	cmd.Flags().StringVar(&keyword, "keyword", "", "keyword to add")
	_ = cmd.MarkFlagRequired("keyword")
	return cmd
}

// loadOrDefault starts from the built-in tables when the file is missing.
func loadOrDefault(path string) (*registry.KeywordRegistry, error) {
	reg, err := registry.LoadRegistry(path)
	if errors.Is(err, os.ErrNotExist) {
		return nlp.DefaultTables().ToRegistry("1.0.0"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return reg, nil
}

func newSearchCmd() *cobra.Command {
	var path string
	var limit int
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Find keywords resembling a term, e.g. to spot near-duplicates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryOrBuiltin(path)
			if err != nil {
				return err
			}

			results := reg.Search(args[0], limit)
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No matches.")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(out, "%-8s %-16s %-3s %-24s %d\n", r.Kind, r.Key, r.Locale, r.Keyword, r.Score)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "registry file (default: built-in tables)")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results, 0 for all")
	return cmd
}

func registryOrBuiltin(path string) (*registry.KeywordRegistry, error) {
	if path == "" {
		return nlp.DefaultTables().ToRegistry("builtin"), nil
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return reg, nil
}

func newAnalyzeCmd() *cobra.Command {
	var path, locale string
	cmd := &cobra.Command{
		Use:   "analyze <message>",
		Short: "Run the analysis pipeline on a message with the given tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := nlp.ParseLocale(locale)
			if err != nil {
				return err
			}

			var opts []nlp.Option
			if path != "" {
				tables, err := nlp.LoadTables(path)
				if err != nil {
					return err
				}
				opts = append(opts, nlp.WithKeywordTables(tables))
			}

			res := nlp.NewAnalyzer(opts...).Analyze(context.Background(), nlp.Request{
				Message:    args[0],
				LocaleHint: loc,
			})
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "registry file (default: built-in tables)")
	cmd.Flags().StringVar(&locale, "locale", "en", "locale hint")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
