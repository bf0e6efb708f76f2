package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog_service/internal/domain"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type postgresProductRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresProductRepository(db *sql.DB, logger *logrus.Logger) domain.ProductRepository {
	return &postgresProductRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresProductRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.log.Errorf("Repository: Failed to begin transaction: %v", err)
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.log.Errorf("Repository: Failed to roll back transaction: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		r.log.Errorf("Repository: Failed to commit transaction: %v", err)
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

func mapPqError(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503":
			return fmt.Errorf("%s references a row that does not exist: %s", what, pqErr.Detail)
		case "23505":
			return fmt.Errorf("%s already exists: %s", what, pqErr.Detail)
		case "23514":
			return fmt.Errorf("%s data constraint violation: %s", what, pqErr.Message)
		}
	}
	return fmt.Errorf("could not write %s: %w", what, err)
}

func (r *postgresProductRepository) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		query := `
        INSERT INTO products (name, sku, description, price, category_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_time`
		err := tx.QueryRowContext(ctx, query,
			product.Name, product.SKU, product.Description, product.Price, product.CategoryID,
		).Scan(&product.ID, &product.CreatedTime)
		if err != nil {
			r.log.Errorf("Repository: Failed to create product '%s': %v", product.Name, err)
			return mapPqError(err, "product")
		}

		for i := range product.Images {
			product.Images[i].ProductID = product.ID
			if err := insertImage(ctx, tx, &product.Images[i]); err != nil {
				r.log.Errorf("Repository: Failed to add image to product ID %d: %v", product.ID, err)
				return err
			}
		}

		for _, kind := range associationKinds {
			if err := insertAssociations(ctx, tx, kind, product.ID, domain.LookupIDs(product.Associations(kind))); err != nil {
				r.log.Errorf("Repository: Failed to link %s rows to product ID %d: %v", kind, product.ID, err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Infof("Repository: Product created successfully with ID: %d, Name: %s", product.ID, product.Name)
	return product, nil
}

func insertImage(ctx context.Context, q queryer, image *domain.ProductImage) error {
	query := `
        INSERT INTO product_images (product_id, image_url, is_primary)
        VALUES ($1, $2, $3)
        RETURNING id, created_time`
	err := q.QueryRowContext(ctx, query, image.ProductID, image.ImageURL, isPrimaryColumn(image.Kind)).
		Scan(&image.ID, &image.CreatedTime)
	if err != nil {
		return mapPqError(err, "product image")
	}
	return nil
}

func insertAssociations(ctx context.Context, q queryer, kind domain.LookupKind, productID int, lookupIDs []int) error {
	if len(lookupIDs) == 0 {
		return nil
	}
	table := lookupTables[kind]

	// links added meanwhile by a concurrent update of the same product are left as they are
	insert := psql.Insert(table.joinTable).
		Columns("product_id", table.joinColumn).
		Suffix(fmt.Sprintf("ON CONFLICT (product_id, %s) DO NOTHING", table.joinColumn))
	for _, id := range lookupIDs {
		insert = insert.Values(productID, id)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("could not build %s insert: %w", table.joinTable, err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return mapPqError(err, kind.String()+" association")
	}
	return nil
}

func deleteAssociations(ctx context.Context, q queryer, kind domain.LookupKind, productID int, lookupIDs []int) error {
	if len(lookupIDs) == 0 {
		return nil
	}
	table := lookupTables[kind]

	query, args, err := psql.Delete(table.joinTable).
		Where(sq.Eq{"product_id": productID, table.joinColumn: lookupIDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("could not build %s delete: %w", table.joinTable, err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("could not remove %s associations: %w", kind, err)
	}
	return nil
}

func (r *postgresProductRepository) GetActiveProduct(ctx context.Context, id int) (*domain.Product, error) {
	return r.getActiveProduct(ctx, r.db, id)
}

func (r *postgresProductRepository) getActiveProduct(ctx context.Context, q queryer, id int) (*domain.Product, error) {
	query := `
        SELECT id, name, sku, description, price, category_id, created_time, is_deleted
        FROM products
        WHERE id = $1 AND is_deleted = FALSE`
	product := &domain.Product{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.SKU,
		&product.Description,
		&product.Price,
		&product.CategoryID,
		&product.CreatedTime,
		&product.IsDeleted,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Product with ID %d not found", id)
			return nil, &domain.NotFoundError{Entity: "product", ID: id}
		}
		r.log.Errorf("Repository: Failed to get product by ID %d: %v", id, err)
		return nil, fmt.Errorf("could not get product by id: %w", err)
	}

	if product.Images, err = r.listImages(ctx, q, id); err != nil {
		return nil, err
	}
	if product.Tags, err = r.listAssociations(ctx, q, domain.LookupTag, id); err != nil {
		return nil, err
	}
	if product.Colors, err = r.listAssociations(ctx, q, domain.LookupColor, id); err != nil {
		return nil, err
	}
	if product.Sizes, err = r.listAssociations(ctx, q, domain.LookupSize, id); err != nil {
		return nil, err
	}

	r.log.Debugf("Repository: Product retrieved successfully with ID: %d", id)
	return product, nil
}

func (r *postgresProductRepository) listImages(ctx context.Context, q queryer, productID int) ([]domain.ProductImage, error) {
	query := `
        SELECT id, product_id, image_url, is_primary, created_time
        FROM product_images
        WHERE product_id = $1
        ORDER BY id ASC`
	rows, err := q.QueryContext(ctx, query, productID)
	if err != nil {
		r.log.Errorf("Repository: Failed to list images of product ID %d: %v", productID, err)
		return nil, fmt.Errorf("could not list product images: %w", err)
	}
	defer rows.Close()

	images := []domain.ProductImage{}
	for rows.Next() {
		var image domain.ProductImage
		var isPrimary sql.NullBool
		if err := rows.Scan(&image.ID, &image.ProductID, &image.ImageURL, &isPrimary, &image.CreatedTime); err != nil {
			return nil, fmt.Errorf("error scanning product image: %w", err)
		}
		image.Kind = imageKindFromColumn(isPrimary)
		images = append(images, image)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product images: %w", err)
	}
	return images, nil
}

func (r *postgresProductRepository) listAssociations(ctx context.Context, q queryer, kind domain.LookupKind, productID int) ([]domain.Association, error) {
	table := lookupTables[kind]
	query, args, err := psql.Select("id", "product_id", table.joinColumn).
		From(table.joinTable).
		Where(sq.Eq{"product_id": productID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("could not build %s query: %w", table.joinTable, err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Errorf("Repository: Failed to list %s of product ID %d: %v", table.joinTable, productID, err)
		return nil, fmt.Errorf("could not list %s associations: %w", kind, err)
	}
	defer rows.Close()

	associations := []domain.Association{}
	for rows.Next() {
		var a domain.Association
		if err := rows.Scan(&a.ID, &a.ProductID, &a.LookupID); err != nil {
			return nil, fmt.Errorf("error scanning %s association: %w", kind, err)
		}
		associations = append(associations, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s associations: %w", kind, err)
	}
	return associations, nil
}

func (r *postgresProductRepository) UpdateProduct(ctx context.Context, update *domain.ProductUpdate, beforeCommit func() error) error {
	product := update.Product
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		query := `
        UPDATE products
        SET name = $1, sku = $2, description = $3, price = $4, category_id = $5
        WHERE id = $6 AND is_deleted = FALSE`
		result, err := tx.ExecContext(ctx, query,
			product.Name, product.SKU, product.Description, product.Price, product.CategoryID, product.ID)
		if err != nil {
			r.log.Errorf("Repository: Failed to update product ID %d: %v", product.ID, err)
			return mapPqError(err, "product")
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("could not confirm product update: %w", err)
		}
		if rowsAffected == 0 {
			r.log.Warnf("Repository: Product with ID %d not found for update (0 rows affected)", product.ID)
			return &domain.NotFoundError{Entity: "product", ID: product.ID}
		}

		// removals go first so a replacement main or hover image never collides
		// with the one it replaces on the partial unique indexes
		if len(update.RemoveImageIDs) > 0 {
			del, args, err := psql.Delete("product_images").
				Where(sq.Eq{"product_id": product.ID, "id": update.RemoveImageIDs}).
				ToSql()
			if err != nil {
				return fmt.Errorf("could not build image delete: %w", err)
			}
			if _, err := tx.ExecContext(ctx, del, args...); err != nil {
				r.log.Errorf("Repository: Failed to remove images of product ID %d: %v", product.ID, err)
				return fmt.Errorf("could not remove product images: %w", err)
			}
		}

		for i := range update.AddImages {
			update.AddImages[i].ProductID = product.ID
			if err := insertImage(ctx, tx, &update.AddImages[i]); err != nil {
				r.log.Errorf("Repository: Failed to add image to product ID %d: %v", product.ID, err)
				return err
			}
		}

		for _, kind := range associationKinds {
			change, ok := update.Associations[kind]
			if !ok || change.Empty() {
				continue
			}
			if err := deleteAssociations(ctx, tx, kind, product.ID, change.RemoveLookupIDs); err != nil {
				return err
			}
			if err := insertAssociations(ctx, tx, kind, product.ID, change.AddLookupIDs); err != nil {
				return err
			}
		}

		if beforeCommit != nil {
			return beforeCommit()
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Infof("Repository: Product ID %d updated (%d images removed, %d added)",
		product.ID, len(update.RemoveImageIDs), len(update.AddImages))
	return nil
}

func (r *postgresProductRepository) SoftDeleteProduct(ctx context.Context, id int) error {
	query := `UPDATE products SET is_deleted = TRUE WHERE id = $1 AND is_deleted = FALSE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.log.Errorf("Repository: Failed to delete product ID %d: %v", id, err)
		return fmt.Errorf("could not delete product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Repository: Failed to get rows affected after deleting product ID %d: %v", id, err)
		return fmt.Errorf("could not confirm product deletion: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Repository: Attempted to delete non-existent product ID %d", id)
		return &domain.NotFoundError{Entity: "product", ID: id}
	}
	r.log.Infof("Repository: Product soft-deleted successfully with ID: %d", id)
	return nil
}

func (r *postgresProductRepository) ListProducts(ctx context.Context, primaryImageOnly bool) ([]domain.ProductListItem, error) {
	image := psql.Select("pi.image_url").
		From("product_images pi").
		Where("pi.product_id = p.id")
	if primaryImageOnly {
		image = image.Where("pi.is_primary = TRUE")
	}
	imageSQL, _, err := image.OrderBy("pi.id ASC").Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("could not build image subquery: %w", err)
	}

	query, args, err := psql.Select("p.id", "p.name", "p.price", "c.name", "COALESCE(("+imageSQL+"), '')").
		From("products p").
		Join("categories c ON c.id = p.category_id").
		Where(sq.Eq{"p.is_deleted": false}).
		OrderBy("p.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("could not build product list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Errorf("Repository: Failed to list products: %v", err)
		return nil, fmt.Errorf("could not list products: %w", err)
	}
	defer rows.Close()

	items := []domain.ProductListItem{}
	for rows.Next() {
		var item domain.ProductListItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.CategoryName, &item.Image); err != nil {
			r.log.Errorf("Repository: Failed to scan product row: %v", err)
			return nil, fmt.Errorf("error scanning product data: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Repository: Error during products list iteration: %v", err)
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	r.log.Infof("Repository: Retrieved %d products", len(items))
	return items, nil
}
