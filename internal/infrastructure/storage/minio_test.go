package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKeys(t *testing.T) {
	t.Run("comprobante key is namespaced by practicante", func(t *testing.T) {
		key := ComprobanteKey("prac-1", "recibo.pdf")

		assert.True(t, strings.HasPrefix(key, "comprobantes/prac-1/"))
		assert.True(t, strings.HasSuffix(key, ".pdf"))
	})

	t.Run("recurso key carries proceso and tipo", func(t *testing.T) {
		key := RecursoKey("proc-9", "arl", "afiliacion.pdf")

		assert.True(t, strings.HasPrefix(key, "recursos/proc-9/arl/"))
		assert.True(t, strings.HasSuffix(key, ".pdf"))
	})

	t.Run("keys differ across uploads of the same filename", func(t *testing.T) {
		a := ComprobanteKey("prac-1", "recibo.pdf")
		b := ComprobanteKey("prac-1", "recibo.pdf")

		assert.NotEqual(t, a, b)
	})
}

func TestRefRoundTrip(t *testing.T) {
	ref := Ref("practicas-documentos", "comprobantes/prac-1/abc.pdf")

	bucket, key, err := ParseRef(ref)
	require.NoError(t, err)
	assert.Equal(t, "practicas-documentos", bucket)
	assert.Equal(t, "comprobantes/prac-1/abc.pdf", key)
}

func TestParseRefRejectsMalformedRefs(t *testing.T) {
	cases := []string{
		"",
		"https://example.com/file.pdf",
		"minio://",
		"minio://bucket-only",
		"minio:///no-bucket",
	}

	for _, ref := range cases {
		_, _, err := ParseRef(ref)
		assert.ErrorIs(t, err, ErrInvalidRef, "ref %q", ref)
	}
}
