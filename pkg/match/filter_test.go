package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/bucketagent/pkg/provider"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1024", 1024, false},
		{"1KB", 1000, false},
		{"1kib", 1024, false},
		{"1.5MiB", 1572864, false},
		{"2 GB", 2 * GB, false},
		{"0", 0, false},
		{"", 0, true},
		{"MB", 0, true},
		{"10XB", 0, true},
		{"99999999999TiB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSize)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512B", FormatSize(512))
	assert.Equal(t, "1.0KiB", FormatSize(KiB))
	assert.Equal(t, "1.5MiB", FormatSize(MiB+MiB/2))
	assert.Equal(t, "2.0GiB", FormatSize(2*GiB))
}

func TestSizeFilter(t *testing.T) {
	f, err := NewSizeFilter("", "")
	require.NoError(t, err)
	assert.Nil(t, f)

	f, err = NewSizeFilter("10", "100")
	require.NoError(t, err)
	assert.False(t, f.Match(&provider.ObjectSummary{SizeBytes: 9}))
	assert.True(t, f.Match(&provider.ObjectSummary{SizeBytes: 10}))
	assert.True(t, f.Match(&provider.ObjectSummary{SizeBytes: 100}))
	assert.False(t, f.Match(&provider.ObjectSummary{SizeBytes: 101}))
	assert.Equal(t, "size: 10B - 100B", f.String())

	f, err = NewSizeFilter("1KiB", "")
	require.NoError(t, err)
	assert.Equal(t, "size: >= 1.0KiB", f.String())

	_, err = NewSizeFilter("100", "10")
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewSizeFilter("lots", "")
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestChain(t *testing.T) {
	m, err := New(Config{Includes: []string{"*.txt"}})
	require.NoError(t, err)
	size, err := NewSizeFilter("1", "")
	require.NoError(t, err)

	var nilSize *SizeFilter
	chain := NewChain(NewKeyFilter(m), size, nilSize, NewKeyFilter(nil), nil)
	require.Len(t, chain, 2)
	assert.Equal(t, "keys: *.txt, size: >= 1B", chain.String())

	entries := []provider.ObjectSummary{
		{Bucket: "b", Key: "a.txt", SizeBytes: 10},
		{Bucket: "b", Key: "empty.txt", SizeBytes: 0},
		{Bucket: "b", Key: "c.csv", SizeBytes: 10},
		{Bucket: "b", Key: "d.txt", SizeBytes: 1},
	}
	got := chain.Apply(entries)
	assert.Equal(t, []provider.ObjectSummary{
		{Bucket: "b", Key: "a.txt", SizeBytes: 10},
		{Bucket: "b", Key: "d.txt", SizeBytes: 1},
	}, got)

	empty := NewChain()
	assert.Equal(t, "no filters", empty.String())
	assert.Len(t, empty.Apply(entries), 4)
}

func TestKeyFilter_String(t *testing.T) {
	m, err := New(Config{Includes: []string{"**"}, Excludes: []string{"tmp/**"}})
	require.NoError(t, err)
	assert.Equal(t, "keys: ** except tmp/**", NewKeyFilter(m).String())
}
