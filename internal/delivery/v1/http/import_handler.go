package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
	"github.com/jimlawless/whereami"
)

const (
	csvFileField       = "csvFile"
	multipartMaxMemory = 8 << 20
	multipartOverhead  = 1 << 20
)

type ImportHandler struct {
	importUsecase usecase.ImportUC
	logger        logger.Logger
	maxFileSize   int64
}

func NewImportHandler(importUsecase usecase.ImportUC, logger logger.Logger, maxFileSize int64) *ImportHandler {
	return &ImportHandler{importUsecase: importUsecase, logger: logger, maxFileSize: maxFileSize}
}

// importProducts
//
//	@Summary		Импорт товаров из CSV
//	@Description	Строки с существующим именем пропускаются и возвращаются в duplicates
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			csvFile	formData	file	true	"CSV-файл с заголовком"
//	@Success		200		{object}	ImportResponse
//	@Failure		400		{object}	ErrorResponse	"Нет файла, пустой файл или не CSV"
//	@Failure		500		{object}	ErrorResponse	"Ошибка разбора CSV"
//	@Router			/products/import [post]
func (h *ImportHandler) importProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)

	if err := ensureMultipartForm(r, multipartMaxMemory); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(csvFileField)
	if err != nil {
		WriteError(w, h.logger, e.Wrap(whereami.WhereAmI(), e.ErrNoFile))
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		WriteError(w, h.logger, e.Wrap(header.Filename, e.ErrFileTooLarge))
		return
	}

	res, err := h.importUsecase.ImportProducts(r.Context(), usecase.NewImportProductsReq(
		header.Filename, header.Header.Get("Content-Type"), header.Size, file,
	))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toImportResponse(res))
}

// exportProducts
//
//	@Summary	Экспорт товаров в CSV
//	@Tags		products
//	@Produce	text/csv
//	@Security	BearerAuth
//	@Success	200	{file}		file
//	@Failure	500	{object}	ErrorResponse
//	@Router		/products/export [get]
func (h *ImportHandler) exportProducts(w http.ResponseWriter, r *http.Request) {
	res, err := h.importUsecase.ExportProducts(r.Context())
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data)
}

// ensureMultipartForm разбирает multipart-запрос; превышение лимита тела — ErrFileTooLarge.
func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}

	return nil
}
