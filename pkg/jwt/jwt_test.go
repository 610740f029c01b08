package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse_RecuperaIdentidad(t *testing.T) {
	id := Identity{UserID: "u-1", LocationID: "TIENDA-1", Role: RoleVendedor}
	tok, err := Generate("s3cr3t", id, "inventario-core", 5)
	require.NoError(t, err)

	got, err := Parse("s3cr3t", tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := Generate("uno", Identity{UserID: "u", Role: RoleAdmin}, "x", 5)
	require.NoError(t, err)

	_, err = Parse("otro", tok)
	assert.Error(t, err)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := Generate("s", Identity{UserID: "u", Role: RoleAdmin}, "x", -1)
	require.NoError(t, err)

	_, err = Parse("s", tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := Generate("", Identity{UserID: "u", Role: RoleAdmin}, "x", 5)
	assert.Error(t, err)
}
