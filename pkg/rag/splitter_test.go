package rag

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSplitter_Split(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		size    int
		overlap int
		text    string
		want    []string
	}{
		{
			name: "fits in one chunk",
			size: 100,
			text: "first\n\nsecond",
			want: []string{"first\n\nsecond"},
		},
		{
			name: "empty pieces dropped",
			size: 100,
			text: "\n\nalpha\n\n\n\nbeta\n\n",
			want: []string{"alpha\n\nbeta"},
		},
		{
			name:    "splits without overlap",
			size:    10,
			overlap: 0,
			text:    "aaaa\n\nbbbb\n\ncccc",
			want:    []string{"aaaa\n\nbbbb", "cccc"},
		},
		{
			name:    "carries overlap",
			size:    10,
			overlap: 4,
			text:    "aaaa\n\nbbbb\n\ncccc",
			want:    []string{"aaaa\n\nbbbb", "bbbb\n\ncccc"},
		},
		{
			name: "oversized piece kept whole",
			size: 5,
			text: "abcdefgh\n\nij",
			want: []string{"abcdefgh", "ij"},
		},
		{
			name: "counts characters not bytes",
			size: 6,
			text: "借閱期限\n\n十四天",
			want: []string{"借閱期限", "十四天"},
		},
		{
			name: "empty text",
			size: 10,
			text: "",
			want: nil,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewSplitter("\n\n", tt.size, tt.overlap)
			require.Equal(t, tt.want, s.Split(tt.text))
		})
	}
}

func TestSplitter_ChunkSizeRespected(t *testing.T) {
	t.Parallel()
	var pieces []string
	for i := 0; i < 200; i++ {
		pieces = append(pieces, strings.Repeat("x", 10+i%40))
	}
	s := NewSplitter("\n\n", 1000, 200)
	chunks := s.Split(strings.Join(pieces, "\n\n"))
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.LessOrEqual(t, utf8.RuneCountInString(c), 1000)
	}
}

func TestNewSplitter_Defaults(t *testing.T) {
	t.Parallel()
	s := NewSplitter("", 0, -1)
	require.Equal(t, "\n\n", s.Separator)
	require.Equal(t, 1000, s.ChunkSize)
	require.Equal(t, 0, s.ChunkOverlap)
}
