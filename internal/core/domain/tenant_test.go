package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveNamespace(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{
			name:  "simple email",
			email: "alice@example.com",
			want:  "alice_at_example_com",
		},
		{
			name:  "uppercase is lowered",
			email: "Bob.Smith@Example.COM",
			want:  "bob_smith_at_example_com",
		},
		{
			name:  "plus and dash replaced",
			email: "dev+test@my-host.io",
			want:  "dev_test_at_my_host_io",
		},
		{
			name:  "leading digit gets prefix",
			email: "42fred@example.com",
			want:  "tenant_42fred_at_example_com",
		},
		{
			name:  "surrounding whitespace trimmed",
			email: "  carol@example.com ",
			want:  "carol_at_example_com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveNamespace(tt.email)
			assert.Equal(t, tt.want, got)
			assert.True(t, ValidNamespace(got), "derived namespace must validate")
		})
	}
}

func TestDeriveNamespace_Truncates(t *testing.T) {
	long := strings.Repeat("a", 100) + "@example.com"

	got := DeriveNamespace(long)

	assert.Len(t, got, MaxNamespaceLen)
	assert.True(t, ValidNamespace(got))
}

func TestValidNamespace_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"leading digit", "1abc"},
		{"uppercase", "Abc"},
		{"sql injection", "x; DROP TABLE chunks_x"},
		{"hyphen", "a-b"},
		{"too long", strings.Repeat("a", MaxNamespaceLen+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, ValidNamespace(tt.in))
		})
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("doc-1", 0)
	b := ChunkID("doc-1", 0)

	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
}

func TestChunkID_DistinguishesDocumentAndPosition(t *testing.T) {
	assert.NotEqual(t, ChunkID("doc-1", 0), ChunkID("doc-1", 1))
	assert.NotEqual(t, ChunkID("doc-1", 0), ChunkID("doc-2", 0))
	// Concatenation must not collide across the id/ordinal boundary.
	assert.NotEqual(t, ChunkID("doc-1", 11), ChunkID("doc-11", 1))
}

func TestManifestClone_DoesNotAlias(t *testing.T) {
	m := Manifest{
		"d1": {DocumentID: "d1", ChunkIDs: []string{"c1", "c2"}},
	}

	clone := m.Clone()
	clone["d1"].ChunkIDs[0] = "mutated"

	assert.Equal(t, "c1", m["d1"].ChunkIDs[0])
	assert.Equal(t, 2, m.ChunkCount())
}
