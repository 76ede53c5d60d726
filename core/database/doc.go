// Package database handles the optional run journal connection and schema inspection.
//
// Connect wraps GORM and opens either MySQL (production) or SQLite (local runs and tests)
// depending on Config.Driver. Sync and cleanup never depend on the database: a failed
// connection only disables the journal.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table so the journal can verify its migrated
// schema on both dialects.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Journal disabled", zap.Error(err))
//	}
//
//	columns, err := database.GetTableColumns(db, "sync_runs")
package database
