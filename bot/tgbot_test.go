package bot

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"level=ERROR msg.", `level\=ERROR msg\.`},
		{"[a](b) *bold* _x_", `\[a\]\(b\) \*bold\* \_x\_`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
