// Package audit stores the trail of changes and commands made through the
// API in the audit_logs table.
//
// Entries are written after a mutation succeeds and never block it: a
// failed audit write is logged by the caller and the request completes.
//
//	repo := audit.NewSQLiteRepository(db.DB)
//	repo.Create(ctx, &audit.Entry{
//	    Action:     audit.ActionCreate,
//	    EntityType: audit.EntityRoom,
//	    EntityID:   "3",
//	    Source:     audit.SourceAPI,
//	})
//
//	page, err := repo.List(ctx, audit.Filter{EntityType: audit.EntityRoom})
package audit
