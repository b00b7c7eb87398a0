/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/polyglot/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation memory cache",
	Long:  `List, inspect, invalidate and clear the SQLite translation memory.`,
}

// withStore opens the configured database for the duration of fn.
func withStore(fn func(db *store.Store) error) error {
	db, err := openStore(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all translation memory entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(db *store.Store) error {
			entries, err := db.ListMemory(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No entries in translation memory.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSOURCE\tTARGET\tSERVICE\tUSED\tLAST USED\tINVALID\tTEXT")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%v\t%s\n",
					e.ID, e.SourceLang, e.TargetLang, e.ServiceUsed,
					e.UsageCount, e.LastUsed.Format("2006-01-02 15:04"),
					e.Invalidated, snippet(e.SourceText, 40))
			}
			return w.Flush()
		})
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(db *store.Store) error {
			stats, err := db.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total entries:   %d\n", stats.TotalEntries)
			fmt.Fprintf(out, "Active entries:  %d\n", stats.ActiveEntries)
			fmt.Fprintf(out, "Invalid entries: %d\n", stats.InvalidEntries)
			fmt.Fprintf(out, "Total usage:     %d\n", stats.TotalUsage)
			fmt.Fprintf(out, "Requests:        %d\n", stats.Requests)
			return nil
		})
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <id>",
	Short: "Stop serving an entry without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(db *store.Store) error {
			if err := db.InvalidateMemory(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to invalidate entry: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invalidated entry: %s\n", args[0])
			return nil
		})
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a translation memory entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(db *store.Store) error {
			if err := db.DeleteMemory(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete entry: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry: %s\n", args[0])
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from translation memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(db *store.Store) error {
			n, err := db.ClearMemory(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries from translation memory.\n", n)
			return nil
		})
	},
}

// snippet shortens s to at most n runes.
func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
