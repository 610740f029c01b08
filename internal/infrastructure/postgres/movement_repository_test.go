package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

func TestMovementWhere_SinFiltros(t *testing.T) {
	where, args := movementWhere(repository.MovementFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestMovementWhere_TodosLosFiltros(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	where, args := movementWhere(repository.MovementFilter{
		ProductIDs:     []string{"P1", "P2"},
		LocationID:     "W1",
		CategoryID:     "C1",
		From:           &from,
		To:             &to,
		ReferenceTypes: []string{"SALE"},
		Search:         "cafe_100%",
	})

	assert.Contains(t, where, "m.product_id = ANY($1)")
	assert.Contains(t, where, "m.location_id = $2")
	assert.Contains(t, where, "COALESCE(p.category_id, '') = $3")
	assert.Contains(t, where, "m.occurred_at >= $4")
	assert.Contains(t, where, "m.occurred_at < $5")
	assert.Contains(t, where, "m.reference_type = ANY($6)")
	assert.Contains(t, where, "LIKE $7")
	assert.Contains(t, where, "m.reference_id = $8")
	require.Len(t, args, 8)
	assert.Equal(t, `%cafe\_100\%%`, args[6], "comodines escapados")
	assert.Equal(t, "cafe_100%", args[7])
}

func TestBuildListQuery_OrdenTotalYPaginacion(t *testing.T) {
	query, args := buildListQuery(repository.MovementFilter{LocationID: "S1"}, 50, 50)

	assert.Contains(t, query, "ORDER BY m.occurred_at, m.id, m.signed_quantity")
	assert.Contains(t, query, "LIMIT $2 OFFSET $3")
	assert.Equal(t, []any{"S1", 50, 50}, args)
}

func TestBuildCountQuery_MismoFiltroQueList(t *testing.T) {
	f := repository.MovementFilter{ReferenceTypes: []string{"INTAKE", "TRANSFER"}}
	count, countArgs := buildCountQuery(f)
	list, listArgs := buildListQuery(f, 10, 0)

	where, _ := movementWhere(f)
	assert.True(t, strings.HasSuffix(count, where))
	assert.Contains(t, list, where)
	assert.Equal(t, countArgs, listArgs[:len(countArgs)])
}

func TestBuildAggregateQuery(t *testing.T) {
	for groupBy := range groupExpressions {
		query, _, err := buildAggregateQuery(repository.MovementFilter{}, groupBy)
		require.NoError(t, err, groupBy)
		assert.Contains(t, query, "GROUP BY grp")
	}

	query, _, err := buildAggregateQuery(repository.MovementFilter{}, repository.GroupByWeek)
	require.NoError(t, err)
	assert.Contains(t, query, "date_trunc('week'")

	_, _, err = buildAggregateQuery(repository.MovementFilter{}, "hour; DROP TABLE x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
