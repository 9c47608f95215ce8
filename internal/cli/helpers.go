package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/recordstore/pkg/types"
)

// validTableNamesStr is a comma-separated list of valid table names for error output.
var validTableNamesStr = strings.Join(types.StandardTableNames, ", ")

// printJSON writes v as indented JSON followed by a newline.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal output: %s", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// tableError converts a read-path error into an exit error.
func tableError(table string, err error) error {
	if errors.Is(err, types.ErrTableNotFound) {
		return userError("unknown table %q (valid: %s)", table, validTableNamesStr)
	}
	return sysError("%s: %s", table, err)
}

// resultError returns the exit error for a non-OK Result, nil otherwise.
func resultError(res types.Result) error {
	if res.OK() {
		return nil
	}
	return &exitError{code: exitUserError}
}
