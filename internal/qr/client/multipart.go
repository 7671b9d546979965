package client

import (
	"bytes"
	"mime/multipart"

	"qr_generator_client/internal/qr/transport"
)

// encodeMultipart writes fields as multipart/form-data, the encoding a browser
// FormData submission uses.
func encodeMultipart(fields []transport.Field) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, f := range fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
