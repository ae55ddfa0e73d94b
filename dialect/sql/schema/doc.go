// Package schema creates the tables of a model graph.
//
// It is a bootstrap helper for demos and tests. Plan converts the
// tables to atlas schema tables and plans their creation with the
// dialect's atlas planner; Create runs the planned CREATE ... IF NOT
// EXISTS statements and never alters existing tables.
//
//	tables, err := schema.Tables(g)
//	if err != nil {
//	    return err
//	}
//	err = schema.NewMigrate(drv).Create(ctx, tables...)
package schema
