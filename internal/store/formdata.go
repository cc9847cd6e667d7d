package store

import (
	"bytes"
	"fmt"
	"mime/multipart"
)

// FormData упорядоченный набор полей multipart-формы.
type FormData struct {
	fields []formField
}

type formField struct {
	name     string
	value    string
	filename string
	content  []byte
	isFile   bool
}

// NewFormData создает пустую форму.
func NewFormData() *FormData {
	return &FormData{}
}

// Append добавляет текстовое поле.
func (f *FormData) Append(name, value string) {
	f.fields = append(f.fields, formField{name: name, value: value})
}

// AppendFile добавляет файл.
func (f *FormData) AppendFile(name, filename string, content []byte) {
	f.fields = append(f.fields, formField{name: name, filename: filename, content: content, isFile: true})
}

// Get возвращает первое текстовое поле с именем name.
func (f *FormData) Get(name string) (string, bool) {
	for _, fld := range f.fields {
		if fld.name == name && !fld.isFile {
			return fld.value, true
		}
	}
	return "", false
}

// FileName возвращает имя первого файла в поле name.
func (f *FormData) FileName(name string) (string, bool) {
	for _, fld := range f.fields {
		if fld.name == name && fld.isFile {
			return fld.filename, true
		}
	}
	return "", false
}

// Encode кодирует форму в тело multipart/form-data.
func (f *FormData) Encode() ([]byte, string, error) {
	const op = "store.FormData.Encode"
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, fld := range f.fields {
		if fld.isFile {
			part, err := w.CreateFormFile(fld.name, fld.filename)
			if err != nil {
				return nil, "", fmt.Errorf("%s: %w", op, err)
			}
			if _, err := part.Write(fld.content); err != nil {
				return nil, "", fmt.Errorf("%s: %w", op, err)
			}
			continue
		}
		if err := w.WriteField(fld.name, fld.value); err != nil {
			return nil, "", fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
