package streambalancer

import (
	"reflect"
	"testing"
)

func Test_compareIDs(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{name: "Same id", a: "1706040577668-1", b: "1706040577668-1", want: 0},
		{name: "Sequence compared numerically", a: "1706040577668-10", b: "1706040577668-9", want: 1},
		{name: "Millis first", a: "1706040577667-99", b: "1706040577668-0", want: -1},
		{name: "Millis compared numerically", a: "999-0", b: "1000-0", want: -1},
		{name: "Missing sequence", a: "5", b: "5-0", want: 0},
		{name: "Unparsable falls back to strings", a: "pending-1", b: "pending-0", want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compareIDs(tt.a, tt.b); got != tt.want {
				t.Errorf("compareIDs(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func Test_excessEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []PendingEntry
		want    []PendingEntry
	}{
		{
			name:    "Single entry is kept",
			entries: []PendingEntry{{ID: "1-0", Consumer: "c"}},
			want:    nil,
		},
		{
			name: "Newest entry is kept",
			entries: []PendingEntry{
				{ID: "100-9", Consumer: "c"},
				{ID: "100-10", Consumer: "c"},
				{ID: "99-50", Consumer: "c"},
			},
			want: []PendingEntry{
				{ID: "100-9", Consumer: "c"},
				{ID: "99-50", Consumer: "c"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := excessEntries(tt.entries); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("excessEntries() = %v, want %v", got, tt.want)
			}
		})
	}
}
