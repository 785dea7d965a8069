package locus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/locusalign/internal/failure"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		text  string
		build Build
		want  Locus
	}{
		{"1:205500000-206000000", B37, Locus{1, 205500000, 206000000, B37}},
		{"chr1:205,500,000-206,000,000", B37, Locus{1, 205500000, 206000000, B37}},
		{" CHR7 : 100 - 200 ", B38, Locus{7, 100, 200, B38}},
		{"X:1000-5000", B38, Locus{23, 1000, 5000, B38}},
		{"chrx:1000-1000", B37, Locus{23, 1000, 1000, B37}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Parse(tt.text, tt.build)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"bad format", "1:100"},
		{"letters", "1:abc-200"},
		{"chrom zero", "0:1-100"},
		{"chrom 24", "24:1-100"},
		{"start after end", "1:500-100"},
		{"beyond chrom length", "21:48129000-48129896"},
		{"too wide", "1:1000000-3000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text, B37)
			require.Error(t, err)
			assert.True(t, failure.IsKind(err, failure.KindInvalidRegion), "got %v", err)
		})
	}
}

func TestParse_MaxWidthInclusive(t *testing.T) {
	_, err := Parse("1:1000000-3000000", B37)
	assert.NoError(t, err)
}

func TestParse_XUsesChrXLength(t *testing.T) {
	_, err := Parse("X:155270000-155270560", B37)
	assert.NoError(t, err)

	_, err = Parse("X:155270000-155270561", B37)
	assert.Error(t, err)

	_, err = Parse("X:155270000-156040895", B38)
	assert.NoError(t, err)
}

func TestParse_Idempotent(t *testing.T) {
	for _, text := range []string{"chr1:205,500,000-206,000,000", "x:10-20", "22 : 5-5"} {
		first, err := Parse(text, B38)
		require.NoError(t, err)
		second, err := Parse(first.String(), B38)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestParseBuild(t *testing.T) {
	for _, s := range []string{"hg19", "GRCh37", "b37"} {
		b, err := ParseBuild(s)
		require.NoError(t, err)
		assert.Equal(t, B37, b)
	}
	for _, s := range []string{"HG38", "grch38", "b38"} {
		b, err := ParseBuild(s)
		require.NoError(t, err)
		assert.Equal(t, B38, b)
	}
	_, err := ParseBuild("hg18")
	assert.Error(t, err)

	assert.Equal(t, "b37", B37.Tag())
	assert.Equal(t, "b38", B38.Tag())
}

func TestNormalizeChrom(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{"chr12", 12, true},
		{"X", 23, true},
		{"chrX", 23, true},
		{"23", 23, true},
		{"Y", 0, false},
		{".", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := NormalizeChrom(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLocusContains(t *testing.T) {
	l := Locus{Chrom: 1, Start: 100, End: 200, Build: B37}
	assert.True(t, l.Contains(1, 100))
	assert.True(t, l.Contains(1, 200))
	assert.False(t, l.Contains(1, 201))
	assert.False(t, l.Contains(2, 150))
}
