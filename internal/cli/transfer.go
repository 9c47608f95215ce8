package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordstore/internal/jsonl"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

func newExportCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "export <table> <file>",
		Short: "Write every record of a table to a JSONL file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			tableName, path := args[0], args[1]

			db, err := st.openDB()
			if err != nil {
				return err
			}
			defer st.closeDB(db, &err)

			recs, err := db.All(tableName)
			if err != nil {
				return tableError(tableName, err)
			}
			if err := jsonl.Write(path, recs); err != nil {
				return sysError("export: %s", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records from %s to %s\n", len(recs), tableName, path)
			return nil
		},
	}
}

func newImportCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "import <table> <file>",
		Short: "Insert every record of a JSONL file into a table",
		Long: `Import inserts each line of the file through the same checks as insert.
Records that fail (invalid shape, duplicate id) are counted and skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			tableName, path := args[0], args[1]

			recs, err := jsonl.Read(path)
			if err != nil {
				return userError("import: %s", err)
			}

			db, err := st.openDB()
			if err != nil {
				return err
			}
			defer st.closeDB(db, &err)

			counts := make(map[types.Status]int)
			for _, rec := range recs {
				res, err := db.Insert(rec, tableName)
				if err != nil {
					return sysError("import: %s", err)
				}
				if res.Status == types.StatusTableNotFound {
					return userError("unknown table %q (valid: %s)", tableName, validTableNamesStr)
				}
				counts[res.Status]++
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d of %d records into %s\n", counts[types.StatusOK], len(recs), tableName)
			statuses := make([]types.Status, 0, len(counts))
			for s := range counts {
				if s != types.StatusOK {
					statuses = append(statuses, s)
				}
			}
			sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
			for _, s := range statuses {
				fmt.Fprintf(out, "  skipped %d: %s\n", counts[s], s)
			}
			return nil
		},
	}
}
