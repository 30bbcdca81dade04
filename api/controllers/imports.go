package controllers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/angelmondragon/stn-picking/api/responses"
	"github.com/angelmondragon/stn-picking/api/validators"
	"github.com/angelmondragon/stn-picking/internal/catalog"
	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
	"github.com/angelmondragon/stn-picking/pkg/logger"
)

const importFormField = "file"

// ImportProducts loads a catalog CSV from a multipart "file" field or the raw
// request body. ?preview=true parses without writing; ?clear=true deactivates
// the existing catalog first.
func ImportProducts(svc catalog.Service, maxMB int, logg *logger.Logger) http.HandlerFunc {
	maxBytes := int64(maxMB) << 20
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		clearExisting, err := validators.ParseQueryBool(r, "clear", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		preview, err := validators.ParseQueryBool(r, "preview", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		body, closeFn, err := importSource(r, maxBytes)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer closeFn()

		if preview {
			result, err := catalog.PreviewImport(body)
			if err != nil {
				responses.WriteError(ctx, logg, w, importError(err))
				return
			}
			responses.WriteSuccess(w, result)
			return
		}

		stats, err := svc.ImportProducts(ctx, body, catalog.ImportOptions{Clear: clearExisting})
		if err != nil {
			responses.WriteError(ctx, logg, w, importError(err))
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func importSource(r *http.Request, maxBytes int64) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		return r.Body, func() {}, nil
	}

	memory := maxBytes
	if memory <= 0 {
		memory = 32 << 20
	}
	if err := r.ParseMultipartForm(memory); err != nil {
		return nil, nil, importError(err)
	}
	file, _, err := r.FormFile(importFormField)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "No file uploaded")
	}
	return file, func() {
		file.Close()
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}, nil
}

func importError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.Wrap(pkgerrors.CodeTooLarge, err, "import file too large").
			WithDetails(map[string]any{"limitBytes": tooLarge.Limit})
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid import payload")
}
