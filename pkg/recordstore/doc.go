// Package recordstore is the data-access facade over the record tables.
//
// A DB wraps an attached types.Store and exposes Insert, Update, FindByID,
// ListActiveCalls and Delete. Write operations report their outcome as a
// types.Result status code:
//
//	0  success
//	1  table not found
//	2  invalid record
//	3  duplicate id (Insert)
//	4  record not found (Update)
//
// The error return of every method is reserved for backend failures such as
// I/O or SQL errors; validation outcomes never produce an error.
//
// Example:
//
//	db, err := recordstore.Open(types.Config{Backend: types.BackendMemory})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	res, err := db.Insert(types.Record{"id": 1, "type": "call.new", "typeRating": 1, "isFirstContact": true}, types.TableCustomers)
package recordstore
