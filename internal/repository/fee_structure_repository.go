package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/fee-ledger/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type feeStructureRepository struct {
	db *sqlx.DB
}

func NewFeeStructureRepository(db *sqlx.DB) FeeStructureRepository {
	return &feeStructureRepository{db: db}
}

const insertItemQuery = `
	INSERT INTO fee_structure_items (id, fee_structure_id, category, description, amount, is_mandatory, is_active, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

func (r *feeStructureRepository) Create(ctx context.Context, structure *domain.FeeStructure) error {
	query := `
		INSERT INTO fee_structures (id, name, level, academic_year, term, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, query,
		structure.ID,
		structure.Name,
		structure.Level,
		structure.AcademicYear,
		structure.Term,
		structure.IsActive,
		structure.CreatedAt,
		structure.UpdatedAt,
	)
	if err != nil {
		return translate(err)
	}

	for _, item := range structure.Items {
		if err = insertItem(ctx, tx, item); err != nil {
			return translate(err)
		}
	}

	return tx.Commit()
}

func insertItem(ctx context.Context, exec sqlx.ExecerContext, item *domain.FeeStructureItem) error {
	_, err := exec.ExecContext(ctx, insertItemQuery,
		item.ID,
		item.FeeStructureID,
		item.Category,
		item.Description,
		item.Amount,
		item.IsMandatory,
		item.IsActive,
		item.CreatedAt,
	)
	return err
}

func (r *feeStructureRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FeeStructure, error) {
	query := `
		SELECT id, name, level, academic_year, term, is_active, created_at, updated_at
		FROM fee_structures
		WHERE id = $1
	`

	var structure domain.FeeStructure
	if err := r.db.GetContext(ctx, &structure, query, id); err != nil {
		return nil, translate(err)
	}

	if err := r.attachItems(ctx, []*domain.FeeStructure{&structure}); err != nil {
		return nil, err
	}

	return &structure, nil
}

func (r *feeStructureRepository) List(ctx context.Context, filter domain.StructureFilter) ([]*domain.FeeStructure, error) {
	var (
		conditions []string
		args       []interface{}
	)
	addCondition := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, column+" = $"+strconv.Itoa(len(args)))
	}
	addCondition("level", filter.Level)
	addCondition("academic_year", filter.AcademicYear)
	addCondition("term", filter.Term)

	query := `
		SELECT id, name, level, academic_year, term, is_active, created_at, updated_at
		FROM fee_structures
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY academic_year DESC, term, level"

	structures := []*domain.FeeStructure{}
	if err := r.db.SelectContext(ctx, &structures, query, args...); err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, structures); err != nil {
		return nil, err
	}

	return structures, nil
}

// attachItems loads the items of every structure in one round trip
func (r *feeStructureRepository) attachItems(ctx context.Context, structures []*domain.FeeStructure) error {
	if len(structures) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.FeeStructure, len(structures))
	ids := make([]string, 0, len(structures))
	for _, s := range structures {
		s.Items = []*domain.FeeStructureItem{}
		byID[s.ID] = s
		ids = append(ids, s.ID.String())
	}

	query := `
		SELECT id, fee_structure_id, category, description, amount, is_mandatory, is_active, created_at
		FROM fee_structure_items
		WHERE fee_structure_id = ANY($1::uuid[])
		ORDER BY created_at, category
	`

	var items []*domain.FeeStructureItem
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(ids)); err != nil {
		return err
	}

	for _, item := range items {
		if s, ok := byID[item.FeeStructureID]; ok {
			s.Items = append(s.Items, item)
		}
	}

	return nil
}

// AddItem inserts an item unless a statement already references the structure.
// Locking the structure row serializes against statement inserts, which take a
// key-share lock on it through their foreign key.
func (r *feeStructureRepository) AddItem(ctx context.Context, item *domain.FeeStructureItem) error {
	query := `
		INSERT INTO fee_structure_items (id, fee_structure_id, category, description, amount, is_mandatory, is_active, created_at)
		SELECT $1::uuid, $2::uuid, $3::varchar, $4::varchar, $5::numeric, $6::boolean, $7::boolean, $8::timestamptz
		WHERE NOT EXISTS (SELECT 1 FROM fee_statements WHERE fee_structure_id = $2::uuid)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id uuid.UUID
	if err = tx.GetContext(ctx, &id, `SELECT id FROM fee_structures WHERE id = $1 FOR UPDATE`, item.FeeStructureID); err != nil {
		return translate(err)
	}

	result, err := tx.ExecContext(ctx, query,
		item.ID,
		item.FeeStructureID,
		item.Category,
		item.Description,
		item.Amount,
		item.IsMandatory,
		item.IsActive,
		item.CreatedAt,
	)
	if err != nil {
		return translate(err)
	}
	if err = requireRow(result); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrStructureIssued
		}
		return err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE fee_structures SET updated_at = $2 WHERE id = $1`, item.FeeStructureID, time.Now()); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *feeStructureRepository) SetItemActive(ctx context.Context, structureID, itemID uuid.UUID, active bool) error {
	query := `
		UPDATE fee_structure_items
		SET is_active = $3
		WHERE fee_structure_id = $1 AND id = $2
	`

	result, err := r.db.ExecContext(ctx, query, structureID, itemID, active)
	if err != nil {
		return err
	}

	return requireRow(result)
}

func (r *feeStructureRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `
		UPDATE fee_structures
		SET is_active = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, active, time.Now())
	if err != nil {
		return err
	}

	return requireRow(result)
}
