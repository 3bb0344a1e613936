package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want Filters
	}{
		{"", Filters{}},
		{"goroutines", Filters{Text: "goroutines"}},
		{"  channel   basics ", Filters{Text: "channel basics"}},
		{"#Go select #go", Filters{Tags: []string{"go"}, Text: "select"}},
		{"is:fav #go #db", Filters{Tags: []string{"go", "db"}, Favorite: true}},
		{"IS:FAVORITE mutex", Filters{Favorite: true, Text: "mutex"}},
		{"# alone", Filters{Text: "# alone"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuery(tt.raw))
		})
	}
}
