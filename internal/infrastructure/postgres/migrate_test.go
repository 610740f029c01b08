package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaSQL_DefineTablasYVista(t *testing.T) {
	for _, obj := range []string{
		"stock_batches", "location_allocations", "reservations", "transfers",
		"transfer_lines", "adjustments", "movement_records", "unaccent",
	} {
		assert.Contains(t, schemaSQL, obj)
	}
	assert.Contains(t, schemaSQL, "CHECK (current_quantity >= 0)")
	assert.Contains(t, schemaSQL, "WHERE status = 'ACTIVE'")
}

func TestSchemaSQL_AjustesCrudosTienenObjetivoUbicacion(t *testing.T) {
	assert.Contains(t, schemaSQL, "CHECK (target_type IN ('BATCH', 'ALLOCATION', 'LOCATION'))")
	assert.Contains(t, schemaSQL, "FROM adjustments a\nWHERE a.status = 'APPLIED'")
}
