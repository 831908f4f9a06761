package netx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilenameFromDisposition(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"quoted", `attachment; filename="rapport_mensuel.xlsx"`, "rapport_mensuel.xlsx", true},
		{"token", `attachment; filename=report_12.pdf`, "report_12.pdf", true},
		{"rfc5987", `attachment; filename*=UTF-8''%C3%A9t%C3%A9.pdf`, "été.pdf", true},
		{"both forms", `attachment; filename="fallback.pdf"; filename*=UTF-8''r%C3%A9el.pdf`, "réel.pdf", true},
		{"loose unquoted with spaces", `attachment; filename=mon rapport.pdf`, "mon rapport.pdf", true},
		{"none", `inline`, "", false},
		{"empty", ``, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FilenameFromDisposition(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsFileContentType(t *testing.T) {
	assert.True(t, IsFileContentType("application/pdf"))
	assert.True(t, IsFileContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	assert.True(t, IsFileContentType("application/octet-stream"))
	assert.False(t, IsFileContentType("application/json"))
	assert.False(t, IsFileContentType(""))
}
