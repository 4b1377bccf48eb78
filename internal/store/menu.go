package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Menu items ---

const menuItemColumns = `id, name, description, base_price, category, is_available, is_bundle, created_at, updated_at`

func scanMenuItem(row interface{ Scan(...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.BasePrice, &m.Category,
		&m.IsAvailable, &m.IsBundle, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

type CreateMenuItemParams struct {
	Name        string
	Description pgtype.Text
	BasePrice   pgtype.Numeric
	Category    string
	IsAvailable bool
	IsBundle    bool
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO menu_items (name, description, base_price, category, is_available, is_bundle)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+menuItemColumns,
		arg.Name, arg.Description, arg.BasePrice, arg.Category, arg.IsAvailable, arg.IsBundle)
	return scanMenuItem(row)
}

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id)
	return scanMenuItem(row)
}

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, `SELECT `+menuItemColumns+` FROM menu_items ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	BasePrice   pgtype.Numeric
	Category    string
	IsAvailable bool
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
UPDATE menu_items
SET name = $2, description = $3, base_price = $4, category = $5, is_available = $6, updated_at = now()
WHERE id = $1
RETURNING `+menuItemColumns,
		arg.ID, arg.Name, arg.Description, arg.BasePrice, arg.Category, arg.IsAvailable)
	return scanMenuItem(row)
}

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	return tag.RowsAffected(), err
}

// --- Bundle constituents ---

func (q *Queries) ListBundleConstituents(ctx context.Context, bundleID uuid.UUID) ([]BundleConstituent, error) {
	rows, err := q.db.Query(ctx, `
SELECT id, bundle_id, menu_item_id, sort_order
FROM bundle_constituents WHERE bundle_id = $1 ORDER BY sort_order`, bundleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BundleConstituent
	for rows.Next() {
		var c BundleConstituent
		if err := rows.Scan(&c.ID, &c.BundleID, &c.MenuItemID, &c.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type CreateBundleConstituentParams struct {
	BundleID   uuid.UUID
	MenuItemID uuid.UUID
	SortOrder  int32
}

func (q *Queries) CreateBundleConstituent(ctx context.Context, arg CreateBundleConstituentParams) (BundleConstituent, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO bundle_constituents (bundle_id, menu_item_id, sort_order)
VALUES ($1, $2, $3)
RETURNING id, bundle_id, menu_item_id, sort_order`,
		arg.BundleID, arg.MenuItemID, arg.SortOrder)
	var c BundleConstituent
	err := row.Scan(&c.ID, &c.BundleID, &c.MenuItemID, &c.SortOrder)
	return c, err
}

type DeleteBundleConstituentParams struct {
	ID       uuid.UUID
	BundleID uuid.UUID
}

func (q *Queries) DeleteBundleConstituent(ctx context.Context, arg DeleteBundleConstituentParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM bundle_constituents WHERE id = $1 AND bundle_id = $2`, arg.ID, arg.BundleID)
	return tag.RowsAffected(), err
}

// --- Variants ---

const variantColumns = `id, menu_item_id, name, price, is_available, sku, sort_order`

func scanVariant(row interface{ Scan(...any) error }) (MenuItemVariant, error) {
	var v MenuItemVariant
	err := row.Scan(&v.ID, &v.MenuItemID, &v.Name, &v.Price, &v.IsAvailable, &v.Sku, &v.SortOrder)
	return v, err
}

func (q *Queries) GetVariant(ctx context.Context, id uuid.UUID) (MenuItemVariant, error) {
	row := q.db.QueryRow(ctx, `SELECT `+variantColumns+` FROM menu_item_variants WHERE id = $1`, id)
	return scanVariant(row)
}

func (q *Queries) ListVariantsByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]MenuItemVariant, error) {
	rows, err := q.db.Query(ctx, `
SELECT `+variantColumns+` FROM menu_item_variants WHERE menu_item_id = $1 ORDER BY sort_order`, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MenuItemVariant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type CreateVariantParams struct {
	MenuItemID  uuid.UUID
	Name        string
	Price       pgtype.Numeric
	IsAvailable bool
	Sku         pgtype.Text
	SortOrder   int32
}

func (q *Queries) CreateVariant(ctx context.Context, arg CreateVariantParams) (MenuItemVariant, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO menu_item_variants (menu_item_id, name, price, is_available, sku, sort_order)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+variantColumns,
		arg.MenuItemID, arg.Name, arg.Price, arg.IsAvailable, arg.Sku, arg.SortOrder)
	return scanVariant(row)
}

type UpdateVariantParams struct {
	ID          uuid.UUID
	MenuItemID  uuid.UUID
	Name        string
	Price       pgtype.Numeric
	IsAvailable bool
	Sku         pgtype.Text
	SortOrder   int32
}

func (q *Queries) UpdateVariant(ctx context.Context, arg UpdateVariantParams) (MenuItemVariant, error) {
	row := q.db.QueryRow(ctx, `
UPDATE menu_item_variants
SET name = $3, price = $4, is_available = $5, sku = $6, sort_order = $7
WHERE id = $1 AND menu_item_id = $2
RETURNING `+variantColumns,
		arg.ID, arg.MenuItemID, arg.Name, arg.Price, arg.IsAvailable, arg.Sku, arg.SortOrder)
	return scanVariant(row)
}

type DeleteVariantParams struct {
	ID         uuid.UUID
	MenuItemID uuid.UUID
}

func (q *Queries) DeleteVariant(ctx context.Context, arg DeleteVariantParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM menu_item_variants WHERE id = $1 AND menu_item_id = $2`, arg.ID, arg.MenuItemID)
	return tag.RowsAffected(), err
}

// --- Choice groups ---

func scanChoiceGroup(row interface{ Scan(...any) error }) (ChoiceGroup, error) {
	var g ChoiceGroup
	var choices []byte
	err := row.Scan(&g.ID, &g.BundleID, &g.Name, &g.IsRequired, &g.SortOrder, &choices)
	if err != nil {
		return g, err
	}
	if len(choices) > 0 {
		if err := json.Unmarshal(choices, &g.Choices); err != nil {
			return g, fmt.Errorf("decode choices: %w", err)
		}
	}
	return g, nil
}

func (q *Queries) ListChoiceGroupsByBundle(ctx context.Context, bundleID uuid.UUID) ([]ChoiceGroup, error) {
	rows, err := q.db.Query(ctx, `
SELECT id, bundle_id, name, is_required, sort_order, choices
FROM choice_groups WHERE bundle_id = $1 ORDER BY sort_order`, bundleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ChoiceGroup
	for rows.Next() {
		g, err := scanChoiceGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

type CreateChoiceGroupParams struct {
	BundleID   uuid.UUID
	Name       string
	IsRequired bool
	SortOrder  int32
	Choices    []ChoiceOption
}

func (q *Queries) CreateChoiceGroup(ctx context.Context, arg CreateChoiceGroupParams) (ChoiceGroup, error) {
	choices, err := json.Marshal(arg.Choices)
	if err != nil {
		return ChoiceGroup{}, fmt.Errorf("encode choices: %w", err)
	}
	row := q.db.QueryRow(ctx, `
INSERT INTO choice_groups (bundle_id, name, is_required, sort_order, choices)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, bundle_id, name, is_required, sort_order, choices`,
		arg.BundleID, arg.Name, arg.IsRequired, arg.SortOrder, choices)
	return scanChoiceGroup(row)
}

type UpdateChoiceGroupParams struct {
	ID         uuid.UUID
	BundleID   uuid.UUID
	Name       string
	IsRequired bool
	SortOrder  int32
	Choices    []ChoiceOption
}

func (q *Queries) UpdateChoiceGroup(ctx context.Context, arg UpdateChoiceGroupParams) (ChoiceGroup, error) {
	choices, err := json.Marshal(arg.Choices)
	if err != nil {
		return ChoiceGroup{}, fmt.Errorf("encode choices: %w", err)
	}
	row := q.db.QueryRow(ctx, `
UPDATE choice_groups
SET name = $3, is_required = $4, sort_order = $5, choices = $6
WHERE id = $1 AND bundle_id = $2
RETURNING id, bundle_id, name, is_required, sort_order, choices`,
		arg.ID, arg.BundleID, arg.Name, arg.IsRequired, arg.SortOrder, choices)
	return scanChoiceGroup(row)
}

type DeleteChoiceGroupParams struct {
	ID       uuid.UUID
	BundleID uuid.UUID
}

func (q *Queries) DeleteChoiceGroup(ctx context.Context, arg DeleteChoiceGroupParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM choice_groups WHERE id = $1 AND bundle_id = $2`, arg.ID, arg.BundleID)
	return tag.RowsAffected(), err
}
