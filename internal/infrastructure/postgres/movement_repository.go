package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo consultas de solo lectura sobre la vista movement_records (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador del libro de movimientos.
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementFrom = `
	FROM movement_records m
	LEFT JOIN products p ON p.id = m.product_id`

// groupExpressions expresiones SQL admitidas para Aggregate (lista cerrada; nunca se interpola entrada).
var groupExpressions = map[string]string{
	repository.GroupByDay:           `to_char(m.occurred_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')`,
	repository.GroupByWeek:          `to_char(date_trunc('week', m.occurred_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD')`,
	repository.GroupByMonth:         `to_char(m.occurred_at AT TIME ZONE 'UTC', 'YYYY-MM')`,
	repository.GroupByLocation:      `m.location_id`,
	repository.GroupByCategory:      `COALESCE(p.category_id, '')`,
	repository.GroupByReferenceType: `m.reference_type`,
}

// movementWhere arma el WHERE dinámico del filtro. La búsqueda ya llega normalizada (minúsculas, sin tildes).
func movementWhere(f repository.MovementFilter) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if len(f.ProductIDs) > 0 {
		conds = append(conds, "m.product_id = ANY("+arg(f.ProductIDs)+")")
	}
	if f.LocationID != "" {
		conds = append(conds, "m.location_id = "+arg(f.LocationID))
	}
	if f.CategoryID != "" {
		conds = append(conds, "COALESCE(p.category_id, '') = "+arg(f.CategoryID))
	}
	if f.From != nil {
		conds = append(conds, "m.occurred_at >= "+arg(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "m.occurred_at < "+arg(*f.To))
	}
	if len(f.ReferenceTypes) > 0 {
		conds = append(conds, "m.reference_type = ANY("+arg(f.ReferenceTypes)+")")
	}
	if f.Search != "" {
		pattern := arg("%" + escapeLike(f.Search) + "%")
		exact := arg(f.Search)
		conds = append(conds, fmt.Sprintf(
			"(lower(unaccent(COALESCE(p.name, ''))) LIKE %[1]s OR lower(COALESCE(p.sku, '')) LIKE %[1]s OR m.reference_id = %[2]s)",
			pattern, exact))
	}
	if len(conds) == 0 {
		return "", args
	}
	return "\n\tWHERE " + strings.Join(conds, "\n\t  AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// buildListQuery orden total (occurred_at, id, signed_quantity): páginas disjuntas y estables.
func buildListQuery(f repository.MovementFilter, limit, offset int) (string, []any) {
	where, args := movementWhere(f)
	args = append(args, limit, offset)
	query := `
	SELECT m.id, m.reference_type, m.reference_id, m.location_id, m.product_id,
	       COALESCE(p.name, ''), COALESCE(p.sku, ''), COALESCE(p.category_id, ''),
	       m.signed_quantity, m.occurred_at` + movementFrom + where + fmt.Sprintf(`
	ORDER BY m.occurred_at, m.id, m.signed_quantity
	LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	return query, args
}

func buildCountQuery(f repository.MovementFilter) (string, []any) {
	where, args := movementWhere(f)
	return `SELECT COUNT(*)` + movementFrom + where, args
}

func buildAggregateQuery(f repository.MovementFilter, groupBy string) (string, []any, error) {
	expr, ok := groupExpressions[groupBy]
	if !ok {
		return "", nil, fmt.Errorf("agrupación %q: %w", groupBy, domain.ErrInvalidInput)
	}
	where, args := movementWhere(f)
	query := `
	SELECT ` + expr + ` AS grp,
	       COUNT(*),
	       COALESCE(SUM(m.signed_quantity) FILTER (WHERE m.signed_quantity > 0), 0),
	       COALESCE(-SUM(m.signed_quantity) FILTER (WHERE m.signed_quantity < 0), 0),
	       COALESCE(SUM(m.signed_quantity), 0)` + movementFrom + where + `
	GROUP BY grp
	ORDER BY grp`
	return query, args, nil
}

// List devuelve una página de movimientos.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.MovementRecord, error) {
	query, args := buildListQuery(f, limit, offset)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list movements", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.MovementRecord, error) {
		var m entity.MovementRecord
		err := row.Scan(&m.ID, &m.ReferenceType, &m.ReferenceID, &m.LocationID, &m.ProductID,
			&m.ProductName, &m.SKU, &m.CategoryID, &m.SignedQuantity, &m.OccurredAt)
		return &m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan movement: %w", err)
	}
	return list, nil
}

// Count cuenta los movimientos que cumplen el filtro.
func (r *MovementRepo) Count(ctx context.Context, f repository.MovementFilter) (int64, error) {
	query, args := buildCountQuery(f)
	var n int64
	if err := r.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, wrap("count movements", err)
	}
	return n, nil
}

// Aggregate agrupa entradas, salidas y neto por la dimensión pedida.
func (r *MovementRepo) Aggregate(ctx context.Context, f repository.MovementFilter, groupBy string) ([]entity.MovementAggregate, error) {
	query, args, err := buildAggregateQuery(f, groupBy)
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("aggregate movements", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.MovementAggregate, error) {
		var g entity.MovementAggregate
		err := row.Scan(&g.Group, &g.Count, &g.Inbound, &g.Outbound, &g.Net)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan movement aggregate: %w", err)
	}
	return out, nil
}
