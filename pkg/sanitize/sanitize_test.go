package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  plain text  ", "plain text"},
		{"<script>alert(1)</script>Raid at dawn", "Raid at dawn"},
		{"<b>Surveil</b> warehouse &amp; yard", "Surveil warehouse & yard"},
		{"line one<br>line two", "line one\nline two"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Text(tt.in))
	}
}
