package svgmaker

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
)

// formPayload is a materialized multipart form. Holding the file contents in
// memory keeps the request replayable across retry attempts.
type formPayload struct {
	fields map[string]string
	files  []formFile
}

type formFile struct {
	field   string
	name    string
	content []byte
}

func newFormPayload() *formPayload {
	return &formPayload{fields: make(map[string]string)}
}

func (f *formPayload) setField(name, value string) {
	if value != "" {
		f.fields[name] = value
	}
}

func (f *formPayload) addFile(field, name string, content []byte) {
	f.files = append(f.files, formFile{field: field, name: name, content: content})
}

// encode renders the multipart body and returns it with its content type.
// Fields are written in sorted order so the encoding is deterministic.
func (f *formPayload) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	names := make([]string, 0, len(f.fields))
	for name := range f.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writer.WriteField(name, f.fields[name]); err != nil {
			return nil, "", fmt.Errorf("writing field %q: %w", name, err)
		}
	}

	for _, file := range f.files {
		part, err := writer.CreateFormFile(file.field, file.name)
		if err != nil {
			return nil, "", fmt.Errorf("creating file part %q: %w", file.field, err)
		}
		if _, err := part.Write(file.content); err != nil {
			return nil, "", fmt.Errorf("writing file part %q: %w", file.field, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

// ReadImageFile loads a file from disk into the byte/name pair the multipart
// endpoints expect.
func ReadImageFile(path string) ([]byte, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", &APIError{Kind: KindValidation, Message: fmt.Sprintf("reading %s", path), Cause: err}
	}
	return content, filepath.Base(path), nil
}
