package extraction

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pdfBytes = "%PDF-1.4 fake document body"

func buildEmail(t *testing.T, withPDF bool) []byte {
	t.Helper()

	var b strings.Builder
	b.WriteString("From: \"Sunrise Support\" <accounts@sunrise.example>\r\n")
	b.WriteString("To: invoices@lotuspm.example\r\n")
	b.WriteString("Subject: Invoice INV-20341\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=frontier\r\n")
	b.WriteString("\r\n")
	b.WriteString("--frontier\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("Please find our invoice attached.\r\n")
	if withPDF {
		b.WriteString("--frontier\r\n")
		b.WriteString("Content-Type: application/pdf; name=\"invoice.pdf\"\r\n")
		b.WriteString("Content-Transfer-Encoding: base64\r\n")
		b.WriteString("Content-Disposition: attachment; filename=\"invoice.pdf\"\r\n")
		b.WriteString("\r\n")
		b.WriteString(base64.StdEncoding.EncodeToString([]byte(pdfBytes)))
		b.WriteString("\r\n")
	}
	b.WriteString("--frontier--\r\n")
	return []byte(b.String())
}

func TestParseEmailWithAttachment(t *testing.T) {
	doc, err := ParseEmail(buildEmail(t, true))
	require.NoError(t, err)

	assert.Equal(t, "accounts@sunrise.example", doc.From)
	assert.Equal(t, "Invoice INV-20341", doc.Subject)
	assert.Equal(t, "invoice.pdf", doc.Filename)
	assert.Equal(t, []byte(pdfBytes), doc.PDF)
}

func TestParseEmailWithoutAttachment(t *testing.T) {
	doc, err := ParseEmail(buildEmail(t, false))
	require.NoError(t, err)

	assert.Equal(t, "accounts@sunrise.example", doc.From)
	assert.Nil(t, doc.PDF)
}

func TestParseEmailPlainBody(t *testing.T) {
	raw := []byte("From: someone@example.com\r\nSubject: hello\r\n\r\njust text\r\n")
	doc, err := ParseEmail(raw)
	require.NoError(t, err)
	assert.Nil(t, doc.PDF)
	assert.Equal(t, "someone@example.com", doc.From)
}

func TestParseEmailOctetStreamPDF(t *testing.T) {
	var b strings.Builder
	b.WriteString("From: accounts@sunrise.example\r\n")
	b.WriteString("Subject: Invoice\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=xx\r\n")
	b.WriteString("\r\n")
	b.WriteString("--xx\r\n")
	b.WriteString("Content-Type: application/octet-stream; name=\"scan.PDF\"\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	b.WriteString("\r\n")
	b.WriteString(base64.StdEncoding.EncodeToString([]byte(pdfBytes)))
	b.WriteString("\r\n")
	b.WriteString("--xx--\r\n")

	doc, err := ParseEmail([]byte(b.String()))
	require.NoError(t, err)
	require.NotNil(t, doc.PDF)
	assert.Equal(t, []byte(pdfBytes), doc.PDF)
	assert.Equal(t, "scan.PDF", doc.Filename)
}

func TestParseEmailNestedMultipart(t *testing.T) {
	var b strings.Builder
	b.WriteString("From: accounts@sunrise.example\r\n")
	b.WriteString("Subject: Invoice\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=outer\r\n")
	b.WriteString("\r\n")
	b.WriteString("--outer\r\n")
	b.WriteString("Content-Type: multipart/alternative; boundary=inner\r\n")
	b.WriteString("\r\n")
	b.WriteString("--inner\r\n")
	b.WriteString("Content-Type: text/plain\r\n")
	b.WriteString("\r\n")
	b.WriteString("body\r\n")
	b.WriteString("--inner\r\n")
	b.WriteString("Content-Type: text/html\r\n")
	b.WriteString("\r\n")
	b.WriteString("<p>body</p>\r\n")
	b.WriteString("--inner--\r\n")
	b.WriteString("--outer\r\n")
	b.WriteString("Content-Type: application/pdf; name=\"invoice.pdf\"\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	b.WriteString("\r\n")
	b.WriteString(base64.StdEncoding.EncodeToString([]byte(pdfBytes)))
	b.WriteString("\r\n")
	b.WriteString("--outer--\r\n")

	doc, err := ParseEmail([]byte(b.String()))
	require.NoError(t, err)
	assert.Equal(t, []byte(pdfBytes), doc.PDF)
}

func TestParseEmailGarbage(t *testing.T) {
	_, err := ParseEmail([]byte("not an email at all"))
	assert.Error(t, err)
}
