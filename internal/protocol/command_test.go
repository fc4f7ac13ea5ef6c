package protocol

import (
	"reflect"
	"testing"
)

func TestCommandWords(t *testing.T) {
	cases := []struct {
		name string
		path string
		args []string
		want Sentence
	}{
		{
			name: "path only",
			path: "/interface/print",
			want: Sentence{"/interface/print"},
		},
		{
			name: "bare assignment gains marker",
			path: "/ip/hotspot/user/print",
			args: []string{"profile=1d"},
			want: Sentence{"/ip/hotspot/user/print", "=profile=1d"},
		},
		{
			name: "pre-marked attribute passes through",
			path: "/interface/set",
			args: []string{"=disabled=yes", "=.id=*1"},
			want: Sentence{"/interface/set", "=disabled=yes", "=.id=*1"},
		},
		{
			name: "query word passes through",
			path: "/interface/print",
			args: []string{"?name=ether1", "?#|"},
			want: Sentence{"/interface/print", "?name=ether1", "?#|"},
		},
		{
			name: "api word passes through",
			path: "/cancel",
			args: []string{".tag=7"},
			want: Sentence{"/cancel", ".tag=7"},
		},
		{
			name: "flag without assignment passes through",
			path: "/interface/print",
			args: []string{"detail"},
			want: Sentence{"/interface/print", "detail"},
		},
		{
			name: "value keeps extra equals",
			path: "/ppp/profile/set",
			args: []string{"on-up=:put (1=1)"},
			want: Sentence{"/ppp/profile/set", "=on-up=:put (1=1)"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CommandWords(tc.path, tc.args)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("CommandWords(%q, %q) = %q, want %q", tc.path, tc.args, got, tc.want)
			}
		})
	}
}
