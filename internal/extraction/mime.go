package extraction

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

// EmailDocument is the part of an inbound email the pipeline cares about: the
// sender and the first PDF attachment, if any.
type EmailDocument struct {
	From     string
	Subject  string
	Filename string
	PDF      []byte
}

// ParseEmail reads a raw RFC 5322 message and pulls out the first PDF
// attachment. PDF is nil when the message carries none.
func ParseEmail(raw []byte) (*EmailDocument, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	doc := &EmailDocument{
		From:    msg.Header.Get("From"),
		Subject: msg.Header.Get("Subject"),
	}
	if addr, err := mail.ParseAddress(doc.From); err == nil {
		doc.From = addr.Address
	}

	if err := findPDF(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// findPDF walks a MIME tree depth-first and stops at the first PDF part
func findPDF(contentType, transferEncoding string, body io.Reader, doc *EmailDocument) error {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// A bare body with no usable content type cannot hold an attachment
		return nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return fmt.Errorf("multipart message without boundary")
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read part: %w", err)
			}
			if err := findPDF(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), part, doc); err != nil {
				return err
			}
			if doc.PDF != nil {
				doc.Filename = firstNonEmpty(doc.Filename, part.FileName())
				return nil
			}
		}
	}

	if !isPDFPart(mediaType, params) {
		return nil
	}

	var reader io.Reader = body
	if strings.EqualFold(transferEncoding, "base64") {
		reader = base64.NewDecoder(base64.StdEncoding, body)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}
	if len(content) == 0 {
		return nil
	}
	doc.PDF = content
	doc.Filename = firstNonEmpty(doc.Filename, params["name"])
	return nil
}

func isPDFPart(mediaType string, params map[string]string) bool {
	if mediaType == "application/pdf" {
		return true
	}
	// Some senders attach PDFs as octet-stream with only the name to go by
	if mediaType == "application/octet-stream" {
		return strings.HasSuffix(strings.ToLower(params["name"]), ".pdf")
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
