package cmd

import (
	"fmt"

	"github.com/JonMunkholm/orderenhancer/internal/database"
	"github.com/JonMunkholm/orderenhancer/internal/grid"
	"github.com/spf13/cobra"
)

var (
	gridDialect string
	gridPage    int
	gridPlain   bool
)

var gridSQLCmd = &cobra.Command{
	Use:   "grid-sql",
	Short: "Print the augmented order grid query",
	Long: `Prints the SELECT the order grid executes with the computed columns
attached, for the given dialect. No database connection is made.`,
	Args: cobra.NoArgs,
	RunE: runGridSQL,
}

func init() {
	gridSQLCmd.Flags().StringVar(&gridDialect, "dialect", "", "mysql or postgres (default: DB_DRIVER)")
	gridSQLCmd.Flags().IntVar(&gridPage, "page", 1, "grid page; 0 prints the unpaged export query")
	gridSQLCmd.Flags().BoolVar(&gridPlain, "plain", false, "print the query without computed columns")
	rootCmd.AddCommand(gridSQLCmd)
}

func runGridSQL(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("config", err)
		return err
	}

	driver := cfg.Database.Driver
	if gridDialect != "" {
		driver = gridDialect
	}
	d, err := database.DialectFor(driver)
	if err != nil {
		printError("dialect", err)
		return err
	}

	c := grid.NewCollection(nil, d, grid.CollectionOptions{TablePrefix: cfg.Database.TablePrefix})
	if gridPage > 0 {
		c.SetPage(gridPage, cfg.Grid.PageSize)
	}
	if !gridPlain {
		grid.NewAugmenter(nil, cfg.Grid.Placeholder, cfg.Grid.Separator).AddProductColumns(c)
	}

	fmt.Fprintln(cmd.OutOrStdout(), c.Select().String())
	return nil
}
