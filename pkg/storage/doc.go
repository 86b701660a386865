// Package storage provides the persistence layer for job records, execution
// history, and targeting rules.
//
// Two implementations share the same repository contracts: Memory for tests
// and single-process use, and Postgres on a pgx connection pool for durable
// deployments. Both satisfy scheduler.Repository, targeting.RuleRepository,
// and targeting.Directory, so the engine can be wired against either
// interchangeably.
//
// Postgres setup:
//
//	cfg := storage.Config{ConnectionString: os.Getenv("PG_CONN_URL")}
//	pool, err := storage.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := storage.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//		return err
//	}
//	store := storage.NewPostgres(pool)
//
// Schema migrations live in pkg/storage/migrations and are applied with
// goose at startup.
package storage
