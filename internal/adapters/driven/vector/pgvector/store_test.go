package pgvector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-labs/mirador/internal/core/domain"
)

func TestTable_ValidNamespace(t *testing.T) {
	tbl, err := table("alice_at_example_com")
	require.NoError(t, err)
	assert.Equal(t, "chunks_alice_at_example_com", tbl)
}

func TestTable_RejectsUnsafeNamespaces(t *testing.T) {
	cases := []string{
		"",
		"UPPER",
		"has-dash",
		"has space",
		"1leadingdigit",
		"drop;table",
		`x"quoted`,
	}
	for _, ns := range cases {
		_, err := table(ns)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "namespace %q must be rejected", ns)
	}
}

func TestTable_DerivedNamespacesAlwaysPass(t *testing.T) {
	emails := []string{
		"alice@example.com",
		"BOB@Example.COM",
		"weird+tag@sub.domain.io",
		"123digits@example.com",
	}
	for _, email := range emails {
		ns := domain.DeriveNamespace(email)
		_, err := table(ns)
		assert.NoError(t, err, "derived namespace for %q must be accepted", email)
	}
}
