package repository

import (
	"context"
	"database/sql"
	"fmt"

	"catalog_service/internal/domain"

	"github.com/sirupsen/logrus"
)

type postgresLookupRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresLookupRepository(db *sql.DB, logger *logrus.Logger) domain.LookupRepository {
	return &postgresLookupRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresLookupRepository) ListActive(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	table, ok := lookupTables[kind]
	if !ok {
		return nil, fmt.Errorf("invalid lookup kind %d", kind)
	}

	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE is_deleted = FALSE ORDER BY id ASC`, table.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.log.Errorf("Repository: Failed to list %s rows: %v", table.table, err)
		return nil, fmt.Errorf("could not list %s: %w", table.table, err)
	}
	defer rows.Close()

	lookups := []domain.Lookup{}
	for rows.Next() {
		var lookup domain.Lookup
		if err := rows.Scan(&lookup.ID, &lookup.Name); err != nil {
			r.log.Errorf("Repository: Failed to scan %s row: %v", table.table, err)
			return nil, fmt.Errorf("error scanning %s row: %w", table.table, err)
		}
		lookups = append(lookups, lookup)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Repository: Error during %s list iteration: %v", table.table, err)
		return nil, fmt.Errorf("error iterating %s: %w", table.table, err)
	}

	r.log.Debugf("Repository: Retrieved %d active %s rows", len(lookups), table.table)
	return lookups, nil
}

func (r *postgresLookupRepository) ExistsActive(ctx context.Context, kind domain.LookupKind, id int) (bool, error) {
	table, ok := lookupTables[kind]
	if !ok {
		return false, fmt.Errorf("invalid lookup kind %d", kind)
	}

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND is_deleted = FALSE)`, table.table)
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		r.log.Errorf("Repository: Failed to check %s ID %d: %v", table.table, id, err)
		return false, fmt.Errorf("could not check %s existence: %w", kind, err)
	}
	return exists, nil
}
