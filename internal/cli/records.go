package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordstore/pkg/recordstore"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

func newInsertCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "insert <table> <json>",
		Short: "Insert a record into a table",
		Long: `Insert stores a new record and prints the status result.

Example:
  recordstore insert tb_customers '{"id": 1, "type": "call.new", "typeRating": 1, "isFirstContact": true}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, st, args, (*recordstore.DB).Insert)
		},
	}
}

func newUpdateCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "update <table> <json>",
		Short: "Update the record with the same id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, st, args, (*recordstore.DB).Update)
		},
	}
}

type writeFunc func(db *recordstore.DB, rec types.Record, table string) (types.Result, error)

func runWrite(cmd *cobra.Command, st *rootState, args []string, write writeFunc) (err error) {
	tableName := args[0]
	rec, err := types.DecodeRecord([]byte(args[1]))
	if err != nil {
		return userError("%s: %s", cmd.Name(), err)
	}

	db, err := st.openDB()
	if err != nil {
		return err
	}
	defer st.closeDB(db, &err)

	res, err := write(db, rec, tableName)
	if err != nil {
		return sysError("%s: %s", cmd.Name(), err)
	}
	if err := printJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	return resultError(res)
}

func newGetCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <id>",
		Short: "Print the record with the given id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			tableName := args[0]
			id, err := types.ParseID(args[1])
			if err != nil {
				return userError("get: %s", err)
			}

			db, err := st.openDB()
			if err != nil {
				return err
			}
			defer st.closeDB(db, &err)

			rec, found, err := db.FindByID(id, tableName)
			if err != nil {
				return tableError(tableName, err)
			}
			if !found {
				return userError("record %d not found in table %q", id, tableName)
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func newActiveCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "active <table>",
		Short: "List the active calls of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			tableName := args[0]

			db, err := st.openDB()
			if err != nil {
				return err
			}
			defer st.closeDB(db, &err)

			recs, err := db.ListActiveCalls(tableName)
			if err != nil {
				return tableError(tableName, err)
			}
			return printJSON(cmd.OutOrStdout(), recs)
		},
	}
}

func newDeleteCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Remove a record by id from a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			tableName := args[0]
			id, err := types.ParseID(args[1])
			if err != nil {
				return userError("delete: %s", err)
			}

			db, err := st.openDB()
			if err != nil {
				return err
			}
			defer st.closeDB(db, &err)

			res, err := db.Delete(id, tableName)
			if err != nil {
				return sysError("delete: %s", err)
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.OK() {
				return userError("unknown table %q (valid: %s)", tableName, validTableNamesStr)
			}
			return nil
		},
	}
}
