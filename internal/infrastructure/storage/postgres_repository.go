package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"driftwatch/internal/drift"
	"driftwatch/internal/ports"
)

// PostgresRepository persists drift reports into Postgres.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ReportRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects to Postgres and pings it.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// SaveReport appends one feature comparison to the history table.
func (r *PostgresRepository) SaveReport(ctx context.Context, feature string, report drift.Report) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.builder.
		Insert("drift_reports").
		Columns("feature", "psi", "ks_statistic", "ks_p_value", "mean_diff", "std_diff", "severity").
		Values(feature, report.PSI, report.KSStatistic, report.KSPValue, report.MeanDiff, report.StdDiff, string(report.Severity)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// RecentReports returns the newest reports for a feature, newest first.
func (r *PostgresRepository) RecentReports(ctx context.Context, feature string, limit int) ([]drift.Report, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	query, args, err := r.builder.
		Select("psi", "ks_statistic", "ks_p_value", "mean_diff", "std_diff", "severity").
		From("drift_reports").
		Where(sq.Eq{"feature": feature}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []drift.Report
	for rows.Next() {
		var (
			report   drift.Report
			severity string
		)
		if err := rows.Scan(&report.PSI, &report.KSStatistic, &report.KSPValue, &report.MeanDiff, &report.StdDiff, &severity); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		report.Severity = drift.Severity(severity)
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return reports, nil
}
