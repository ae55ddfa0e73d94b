package schema

import (
	"errors"
	"fmt"
)

// TableError reports an inconsistent table definition.
type TableError struct {
	Table  string
	Column string
	Msg    string
}

func (e *TableError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Msg)
}

// Validate checks that the tables can be created together: names are
// unique and foreign keys point at known columns and tables. All the
// problems found are joined in the returned error.
func Validate(tables []*Table) error {
	var errs []error
	known := make(map[string]bool, len(tables))
	for _, t := range tables {
		if known[t.Name] {
			errs = append(errs, &TableError{Table: t.Name, Msg: "table is declared twice"})
		}
		known[t.Name] = true
		errs = append(errs, validateTable(t)...)
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if fk.RefTable == nil || !known[fk.RefTable.Name] {
				name := "<nil>"
				if fk.RefTable != nil {
					name = fk.RefTable.Name
				}
				errs = append(errs, &TableError{Table: t.Name, Msg: fmt.Sprintf("foreign key references unknown table %q", name)})
			}
		}
	}
	return errors.Join(errs...)
}

func validateTable(t *Table) []error {
	var errs []error
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if seen[c.Name] {
			errs = append(errs, &TableError{Table: t.Name, Column: c.Name, Msg: "column is declared twice"})
		}
		seen[c.Name] = true
	}
	for _, fk := range t.ForeignKeys {
		for _, c := range fk.Columns {
			if !seen[c.Name] {
				errs = append(errs, &TableError{Table: t.Name, Column: c.Name, Msg: "foreign key column does not exist"})
			}
		}
	}
	return errs
}
