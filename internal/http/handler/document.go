package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"docvault/internal/delivery"
	"docvault/internal/identifier"
	"docvault/internal/model"
	"docvault/internal/service"
	"docvault/internal/storage"
)

// uploadField is the only multipart part accepted by the upload endpoint.
const uploadField = "file"

type uploadedFile struct {
	ID           int64  `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimetype"`
	Path         string `json:"path"`
	UUID         string `json:"uuid"`
}

type uploadResponse struct {
	Message string       `json:"message"`
	File    uploadedFile `json:"file"`
}

// UploadDocument accepts a multipart body with exactly one part named "file".
//
// @Summary      Upload a document
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "PDF, JPEG, PNG or Word document"
// @Success      200   {object}  uploadResponse
// @Failure      400   {object}  errorPayload
// @Failure      500   {object}  errorPayload
// @Router       /api/upload-pc [post]
func UploadDocument(svc service.DocumentService, maxUpload int64, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			if errors.Is(err, fasthttp.ErrNoMultipartForm) {
				return writeError(c, fiber.StatusBadRequest, codeMissingFile, msgMissingFile)
			}
			return writeError(c, fiber.StatusBadRequest, codeBadRequest, "malformed multipart body")
		}

		for field, files := range form.File {
			if field != uploadField || len(files) > 1 {
				return writeError(c, fiber.StatusBadRequest, codeUnexpectedFile, msgUnexpectedFile)
			}
		}
		files := form.File[uploadField]
		if len(files) == 0 {
			return writeError(c, fiber.StatusBadRequest, codeMissingFile, msgMissingFile)
		}
		fh := files[0]

		f, err := fh.Open()
		if err != nil {
			return writeInternal(c, log, err, "open_upload_part_failed")
		}
		defer f.Close()

		doc, err := svc.Upload(c.UserContext(), service.UploadInput{
			Reader:       f,
			OriginalName: fh.Filename,
			MimeType:     fh.Header.Get(fiber.HeaderContentType),
			Size:         fh.Size,
		})
		switch {
		case err == nil:
		case errors.Is(err, service.ErrMissingFile):
			return writeError(c, fiber.StatusBadRequest, codeMissingFile, msgMissingFile)
		case errors.Is(err, service.ErrInvalidType):
			return writeError(c, fiber.StatusBadRequest, codeInvalidType, msgInvalidType)
		case errors.Is(err, service.ErrSizeExceeded):
			return writeError(c, fiber.StatusBadRequest, codeSizeExceeded, sizeExceededMessage(maxUpload))
		default:
			return writeInternal(c, log, err, "upload_failed")
		}

		return c.Status(fiber.StatusOK).JSON(uploadResponse{
			Message: "File uploaded successfully!",
			File: uploadedFile{
				ID:           doc.ID,
				Filename:     doc.Filename,
				OriginalName: doc.OriginalName,
				Size:         doc.Size,
				MimeType:     doc.MimeType,
				Path:         doc.StoragePath,
				UUID:         doc.UUID,
			},
		})
	}
}

// ListDocuments returns every record, newest first.
//
// @Summary      List documents
// @Tags         files
// @Produce      json
// @Success      200  {array}   model.Document
// @Failure      500  {object}  errorPayload
// @Router       /api/files [get]
func ListDocuments(svc service.DocumentService, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := svc.List(c.UserContext())
		if err != nil {
			return writeInternal(c, log, err, "list_failed")
		}
		if docs == nil {
			docs = []model.Document{}
		}
		return c.JSON(docs)
	}
}

// GetDocument returns one record by content identifier.
//
// @Summary      Get document metadata
// @Tags         files
// @Produce      json
// @Param        uuid  path      string  true  "Content identifier"
// @Success      200   {object}  model.Document
// @Failure      404   {object}  errorPayload
// @Router       /api/files/{uuid} [get]
func GetDocument(svc service.DocumentService, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("uuid")
		if !identifier.Valid(id) {
			return writeError(c, fiber.StatusNotFound, codeNotFound, msgFileNotFound)
		}

		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, codeNotFound, msgFileNotFound)
			}
			return writeInternal(c, log, err, "get_failed")
		}
		return c.JSON(doc)
	}
}

// GetDocumentContent streams the blob, honoring a single Range header.
//
// @Summary      Download document content
// @Tags         files
// @Produce      octet-stream
// @Param        uuid   path    string  true   "Content identifier"
// @Param        Range  header  string  false  "bytes=<start>-[<end>]"
// @Success      200
// @Success      206
// @Failure      404  {object}  errorPayload
// @Failure      416
// @Router       /api/files/{uuid}/content [get]
func GetDocumentContent(svc service.DocumentService, engine *delivery.Engine, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("uuid")
		if !identifier.Valid(id) {
			return writeError(c, fiber.StatusNotFound, codeNotFound, msgFileNotFound)
		}

		res, err := svc.Resolve(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrMissingBlob) {
				return writeError(c, fiber.StatusNotFound, codeNotFound, msgFileNotFound)
			}
			return writeInternal(c, log, err, "resolve_failed")
		}

		err = engine.Deliver(c, delivery.Target{
			Path:        res.Document.StoragePath,
			ContentType: res.ContentType,
			Size:        res.Size,
			Filename:    res.Document.OriginalName,
		})
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				return writeError(c, fiber.StatusNotFound, codeNotFound, msgFileNotFound)
			}
			return writeInternal(c, log, err, "open_blob_failed")
		}
		return nil
	}
}
