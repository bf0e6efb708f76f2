package repository

import (
	"context"
	"database/sql"

	"catalog_service/internal/domain"

	sq "github.com/Masterminds/squirrel"
)

type lookupTable struct {
	table      string
	joinTable  string
	joinColumn string
}

var lookupTables = map[domain.LookupKind]lookupTable{
	domain.LookupCategory: {table: "categories"},
	domain.LookupColor:    {table: "colors", joinTable: "product_colors", joinColumn: "color_id"},
	domain.LookupSize:     {table: "sizes", joinTable: "product_sizes", joinColumn: "size_id"},
	domain.LookupTag:      {table: "tags", joinTable: "product_tags", joinColumn: "tag_id"},
}

// associationKinds are the lookups a product is linked to through join tables.
var associationKinds = []domain.LookupKind{domain.LookupTag, domain.LookupColor, domain.LookupSize}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isPrimaryColumn(kind domain.ImageKind) sql.NullBool {
	switch kind {
	case domain.ImageMain:
		return sql.NullBool{Bool: true, Valid: true}
	case domain.ImageHover:
		return sql.NullBool{Bool: false, Valid: true}
	default:
		return sql.NullBool{}
	}
}

func imageKindFromColumn(isPrimary sql.NullBool) domain.ImageKind {
	switch {
	case !isPrimary.Valid:
		return domain.ImageGallery
	case isPrimary.Bool:
		return domain.ImageMain
	default:
		return domain.ImageHover
	}
}
