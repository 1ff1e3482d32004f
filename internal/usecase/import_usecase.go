package usecase

import (
	"bytes"
	"context"
	"errors"

	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
	"golang.org/x/sync/errgroup"
)

type rowOutcomeKind int

const (
	rowSkipped rowOutcomeKind = iota
	rowAdded
	rowDuplicate
)

// rowOutcome — результат обработки одной строки импорта.
type rowOutcome struct {
	kind      rowOutcomeKind
	duplicate Duplicate
}

// ImportUseCase реализует массовую загрузку товаров из CSV и выгрузку в CSV.
type ImportUseCase struct {
	productRepo    ProductRepository
	uploads        UploadsInfra
	logger         logger.Logger
	maxConcurrency int
}

func NewImportUC(productRepo ProductRepository, uploads UploadsInfra, logger logger.Logger, maxConcurrency int) *ImportUseCase {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	return &ImportUseCase{
		productRepo:    productRepo,
		uploads:        uploads,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// ExportProducts выгружает все товары в CSV, новые первыми.
func (i *ImportUseCase) ExportProducts(ctx context.Context) (*ExportProductsRes, error) {
	const op = "ImportUseCase.ExportProducts"

	products, err := i.productRepo.ListAll(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var buf bytes.Buffer
	if err := EncodeProductsCSV(&buf, products); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &ExportProductsRes{
		FileName:    ExportFileName,
		ContentType: ExportContentType,
		Data:        buf.Bytes(),
	}, nil
}

// ImportProducts загружает товары из CSV.
// Временный файл удаляется после обработки при любом исходе.
// Строки обрабатываются параллельно с ограничением, итог сворачивается в порядке строк файла.
func (i *ImportUseCase) ImportProducts(ctx context.Context, req *ImportProductsReq) (*ImportProductsRes, error) {
	const op = "ImportUseCase.ImportProducts"

	if req == nil || req.File == nil {
		return nil, e.Wrap(op, e.ErrNoFile)
	}

	if !IsCSVUpload(req.FileName, req.ContentType) {
		return nil, e.Wrap(op, e.ErrUnsupportedMediaType)
	}

	upload, err := i.uploads.Store(ctx, NewStoreUploadReq(req.FileName, req.ContentType, req.Size, req.File))
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer i.uploads.Release(upload.Key)

	rows, err := i.readRows(ctx, upload.Key)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(rows) == 0 {
		return nil, e.Wrap(op, e.ErrEmptyCSV)
	}

	outcomes := make([]rowOutcome, len(rows))

	var g errgroup.Group
	g.SetLimit(i.maxConcurrency)
	for idx := range rows {
		g.Go(func() error {
			outcomes[idx] = i.importRow(ctx, &rows[idx])
			return nil
		})
	}
	_ = g.Wait()

	res := foldOutcomes(outcomes)
	i.logger.Infof("CSV import finished: file: %s, rows: %d, added: %d, skipped: %d, duplicates: %d",
		req.FileName, len(rows), res.Added, res.Skipped, len(res.Duplicates))

	return res, nil
}

// readRows открывает временный файл и разбирает CSV.
func (i *ImportUseCase) readRows(ctx context.Context, key string) ([]CSVProductRow, error) {
	rc, err := i.uploads.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return ParseProductsCSV(rc)
}

// importRow обрабатывает строку: пустое имя — пропуск, существующее имя — дубликат, иначе вставка.
// Нарушение уникальности при вставке (гонка внутри одного импорта) тоже считается дубликатом.
func (i *ImportUseCase) importRow(ctx context.Context, row *CSVProductRow) rowOutcome {
	const op = "ImportUseCase.importRow"

	if row.Name == "" {
		return rowOutcome{kind: rowSkipped}
	}

	existing, err := i.productRepo.FindByName(ctx, row.Name, 0)
	switch {
	case err == nil:
		return newDuplicateOutcome(existing.Name, existing.ID)
	case !errors.Is(err, e.ErrProductNotFound):
		i.logger.Warnf("Error checking duplicate: line: %d, name: %s, error: %v", row.Line, row.Name, e.Wrap(op, err))
		return rowOutcome{kind: rowSkipped}
	}

	_, err = i.productRepo.Create(ctx, row.toDomain())
	switch {
	case err == nil:
		return rowOutcome{kind: rowAdded}
	case errors.Is(err, e.ErrProductAlreadyExists):
		winner, findErr := i.productRepo.FindByName(ctx, row.Name, 0)
		if findErr != nil {
			i.logger.Warnf("Duplicate row lost insert race, existing product not readable: line: %d, name: %s, error: %v",
				row.Line, row.Name, e.Wrap(op, findErr))
			return newDuplicateOutcome(row.Name, 0)
		}
		return newDuplicateOutcome(winner.Name, winner.ID)
	default:
		i.logger.Warnf("Error inserting product: line: %d, name: %s, error: %v", row.Line, row.Name, e.Wrap(op, err))
		return rowOutcome{kind: rowSkipped}
	}
}

func newDuplicateOutcome(name string, existingID int64) rowOutcome {
	return rowOutcome{
		kind:      rowDuplicate,
		duplicate: Duplicate{Name: name, ExistingID: existingID},
	}
}

// foldOutcomes сводит результаты строк в итог импорта. Дубликаты тоже считаются пропущенными.
func foldOutcomes(outcomes []rowOutcome) *ImportProductsRes {
	res := &ImportProductsRes{Duplicates: make([]Duplicate, 0)}
	for _, o := range outcomes {
		switch o.kind {
		case rowAdded:
			res.Added++
		case rowDuplicate:
			res.Skipped++
			res.Duplicates = append(res.Duplicates, o.duplicate)
		default:
			res.Skipped++
		}
	}

	return res
}
