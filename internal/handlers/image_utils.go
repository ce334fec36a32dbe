package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"renTrentoBack/internal/models"
)

const maxImageSize = 8 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type uploadedImage struct {
	Name        string
	ContentType string
	Data        []byte
}

// readImage pulls the first file under one of keys out of a multipart form.
func readImage(r *http.Request, keys ...string) (uploadedImage, error) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		return uploadedImage{}, models.ErrImageRequired
	}
	files := collectImageFiles(r.MultipartForm, keys...)
	if len(files) == 0 {
		return uploadedImage{}, models.ErrImageRequired
	}

	header := files[0]
	if header.Size > maxImageSize {
		return uploadedImage{}, models.ErrImageRequired
	}
	f, err := header.Open()
	if err != nil {
		return uploadedImage{}, models.ErrImageRequired
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil || len(data) == 0 || len(data) > maxImageSize {
		return uploadedImage{}, models.ErrImageRequired
	}

	contentType := strings.ToLower(http.DetectContentType(data))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if !allowedImageTypes[contentType] {
		return uploadedImage{}, models.ErrImageRequired
	}
	return uploadedImage{Name: header.Filename, ContentType: contentType, Data: data}, nil
}

// collectImageFiles gathers the files of the given form keys in order.
func collectImageFiles(form *multipart.Form, keys ...string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}

	var result []*multipart.FileHeader
	for _, key := range keys {
		if headers, ok := form.File[key]; ok {
			result = append(result, headers...)
		}
	}
	return result
}
