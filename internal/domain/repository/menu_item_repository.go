package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"restaurant_menu/internal/common"
	"restaurant_menu/internal/domain/model"
)

type MenuItemRepository interface {
	Create(ctx context.Context, item *model.MenuItem) error
	Update(ctx context.Context, item *model.MenuItem) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*model.MenuItem, error)
	// List returns every item, newest first.
	List(ctx context.Context) ([]model.MenuItem, error)
}

type pgMenuItemRepository struct {
	db *sql.DB
}

func NewPgMenuItemRepository(db *sql.DB) MenuItemRepository {
	return &pgMenuItemRepository{db: db}
}

func (r *pgMenuItemRepository) Create(ctx context.Context, item *model.MenuItem) error {
	query := `INSERT INTO products (title, description, category, price, image)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, item.Title, item.Description, item.Category, item.Price, item.Image).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgMenuItemRepository.Create: %w", err)
	}
	return nil
}

// Update overwrites the text fields and price; the image is immutable after upload.
func (r *pgMenuItemRepository) Update(ctx context.Context, item *model.MenuItem) error {
	query := `UPDATE products
	          SET title = $1, description = $2, category = $3, price = $4, updated_at = NOW()
	          WHERE id = $5
	          RETURNING image, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, item.Title, item.Description, item.Category, item.Price, item.ID).
		Scan(&item.Image, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgMenuItemRepository.Update: %w", err)
	}
	return nil
}

func (r *pgMenuItemRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgMenuItemRepository.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgMenuItemRepository.Delete: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgMenuItemRepository) FindByID(ctx context.Context, id int64) (*model.MenuItem, error) {
	query := `SELECT id, title, description, category, price, image, created_at, updated_at
	          FROM products WHERE id = $1`
	item := &model.MenuItem{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Title, &item.Description, &item.Category, &item.Price, &item.Image, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgMenuItemRepository.FindByID: %w", err)
	}
	return item, nil
}

func (r *pgMenuItemRepository) List(ctx context.Context) ([]model.MenuItem, error) {
	query := `SELECT id, title, description, category, price, image, created_at, updated_at
	          FROM products ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgMenuItemRepository.List: %w", err)
	}
	defer rows.Close()

	items := []model.MenuItem{}
	for rows.Next() {
		var item model.MenuItem
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Description, &item.Category, &item.Price, &item.Image, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgMenuItemRepository.List: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgMenuItemRepository.List: %w", err)
	}
	return items, nil
}
