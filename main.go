package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"minidb/monitoring/exporter"
	"minidb/pkg/database"
	"minidb/pkg/ui"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minidb",
		Short: "A small relational database with an interactive SQL shell",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd)
		},
	}

	cmd.Flags().String("db", "mydb", "database name")
	cmd.Flags().Bool("plain", false, "use the plain line shell instead of the TUI")
	cmd.Flags().String("metrics-addr", "", "serve /metrics on this address (empty disables)")
	cmd.Flags().String("init-file", "", "SQL file executed at startup")
	cmd.Flags().String("config", "", "config file (default minidb.yaml in the working directory)")

	_ = viper.BindPFlag("db", cmd.Flags().Lookup("db"))
	_ = viper.BindPFlag("plain", cmd.Flags().Lookup("plain"))
	_ = viper.BindPFlag("metrics-addr", cmd.Flags().Lookup("metrics-addr"))
	_ = viper.BindPFlag("init-file", cmd.Flags().Lookup("init-file"))
	viper.SetEnvPrefix("MINIDB")
	viper.AutomaticEnv()

	return cmd
}

func run(cmd *cobra.Command) error {
	if cfg, _ := cmd.Flags().GetString("config"); cfg != "" {
		viper.SetConfigFile(cfg)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	} else {
		viper.SetConfigName("minidb")
		viper.AddConfigPath(".")
		_ = viper.ReadInConfig()
	}

	db := database.NewDatabase(viper.GetString("db"))

	if initFile := viper.GetString("init-file"); initFile != "" {
		if err := importFile(db, initFile); err != nil {
			return fmt.Errorf("importing %s: %w", initFile, err)
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if addr := viper.GetString("metrics-addr"); addr != "" {
		go func() {
			if err := exporter.New(db, addr).Serve(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "metrics exporter: %v\n", err)
			}
		}()
	}

	if viper.GetBool("plain") {
		return runPlainShell(db)
	}
	return ui.Run(db)
}

// importFile executes each semicolon-terminated statement of a file.
func importFile(db *database.Database, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, stmt := range strings.Split(string(data), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecuteQuery(stmt); err != nil {
			return err
		}
	}
	return nil
}

// runPlainShell is the readline-based line-mode shell used where a TUI
// is unwanted (pipes, dumb terminals).
func runPlainShell(db *database.Database) error {
	rl, err := readline.New("minidb> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	errPrint := color.New(color.FgRed).FprintfFunc()
	okPrint := color.New(color.FgGreen).FprintfFunc()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			return nil
		}

		query := strings.TrimSpace(line)
		switch strings.ToLower(query) {
		case "":
			continue
		case "exit", "quit", `\q`:
			return nil
		}

		result, err := db.ExecuteQuery(query)
		if err != nil {
			errPrint(os.Stderr, "error: %v\n", err)
			continue
		}

		printResult(result, okPrint)
	}
}

func printResult(result database.QueryResult, okPrint func(w io.Writer, format string, a ...interface{})) {
	if len(result.Columns) > 0 {
		fmt.Println(strings.Join(result.Columns, "\t"))
		for _, row := range result.Rows {
			fmt.Println(strings.Join(row, "\t"))
		}
	}
	okPrint(os.Stdout, "%s\n", result.Message)
}
