package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
)

// CatalogEditor выполняет структурные правки каталога. Каждая правка применяется
// к снимку ConfigStore одним Update и завершается сохранением.
type CatalogEditor struct {
	store  *ConfigStore
	logger logger.Logger
}

func NewCatalogEditorUC(store *ConfigStore, logger logger.Logger) *CatalogEditor {
	return &CatalogEditor{
		store:  store,
		logger: logger,
	}
}

// CreateProduct назначает товару ID max+1 и добавляет его в конец списка категории.
func (c *CatalogEditor) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, *SaveResult, error) {
	const op = "CatalogEditor.CreateProduct"

	in = c.normalizeProduct(in)

	var created *domain.Product
	res, err := c.store.Update(ctx, func(s *domain.Snapshot) error {
		if _, ok := s.Categories[in.Category]; !ok {
			return e.Wrap(fmt.Sprintf("category %q", in.Category), e.ErrCategoryNotFound)
		}

		p := in.toDomain(s.NextProductID())
		c.resolveFlags(p)
		if err := p.Validate(); err != nil {
			return err
		}

		s.FileProduct(p)
		created = p.Clone()
		return nil
	})
	if err != nil {
		return nil, res, e.Wrap(op, err)
	}

	c.logger.Infof("Product created: id: %d, category: %s", created.ID, created.Category)
	return created, res, nil
}

// UpdateProduct заменяет товар на месте; при смене категории переносит его в конец нового списка.
func (c *CatalogEditor) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*domain.Product, *SaveResult, error) {
	const op = "CatalogEditor.UpdateProduct"

	in = c.normalizeProduct(in)

	var updated *domain.Product
	res, err := c.store.Update(ctx, func(s *domain.Snapshot) error {
		if _, ok := s.FindProduct(id); !ok {
			return e.Wrap(fmt.Sprintf("product %d", id), e.ErrProductNotFound)
		}

		if _, ok := s.Categories[in.Category]; !ok {
			return e.Wrap(fmt.Sprintf("category %q", in.Category), e.ErrCategoryNotFound)
		}

		p := in.toDomain(id)
		c.resolveFlags(p)
		if err := p.Validate(); err != nil {
			return err
		}

		s.ReplaceProduct(p)
		updated = p.Clone()
		return nil
	})
	if err != nil {
		return nil, res, e.Wrap(op, err)
	}

	return updated, res, nil
}

// DeleteProduct удаляет товар из всех списков.
func (c *CatalogEditor) DeleteProduct(ctx context.Context, id int64) (*SaveResult, error) {
	const op = "CatalogEditor.DeleteProduct"

	res, err := c.store.Update(ctx, func(s *domain.Snapshot) error {
		if !s.RemoveProduct(id) {
			return e.Wrap(fmt.Sprintf("product %d", id), e.ErrProductNotFound)
		}
		return nil
	})
	if err != nil {
		return res, e.Wrap(op, err)
	}

	c.logger.Infof("Product deleted: id: %d", id)
	return res, nil
}

func (c *CatalogEditor) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, *SaveResult, error) {
	const op = "CatalogEditor.CreateCategory"

	category := domain.NewCategory(in.ID, in.Name, in.Emoji, in.Description)
	if err := category.Validate(); err != nil {
		return nil, nil, e.Wrap(op, err)
	}

	res, err := c.store.Update(ctx, func(s *domain.Snapshot) error {
		if _, ok := s.Categories[category.ID]; ok {
			return e.Wrap(fmt.Sprintf("category %q", category.ID), e.ErrCategoryExists)
		}

		s.Categories[category.ID] = category.Clone()
		if _, ok := s.Products[category.ID]; !ok {
			s.Products[category.ID] = []*domain.Product{}
		}
		return nil
	})
	if err != nil {
		return nil, res, e.Wrap(op, err)
	}

	return category, res, nil
}

// UpdateCategory меняет поля категории. Если in.ID отличается от id, категория переименовывается:
// новая запись, удаление старой и перенос товаров происходят в одной правке.
func (c *CatalogEditor) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*domain.Category, *SaveResult, error) {
	const op = "CatalogEditor.UpdateCategory"

	id = strings.TrimSpace(id)
	newID := strings.TrimSpace(in.ID)
	if newID == "" {
		newID = id
	}

	category := domain.NewCategory(newID, in.Name, in.Emoji, in.Description)
	if err := category.Validate(); err != nil {
		return nil, nil, e.Wrap(op, err)
	}

	res, err := c.store.Update(ctx, func(s *domain.Snapshot) error {
		if err := s.RenameCategory(id, newID); err != nil {
			return err
		}

		s.Categories[newID] = category.Clone()
		return nil
	})
	if err != nil {
		return nil, res, e.Wrap(op, err)
	}

	if newID != id {
		c.logger.Infof("Category renamed: %s -> %s", id, newID)
	}

	return category, res, nil
}

// DeleteCategory удаляет категорию вместе с её товарами. Без подтверждения ничего не делает.
// Возвращает число удалённых товаров.
func (c *CatalogEditor) DeleteCategory(ctx context.Context, id string, confirmed bool) (int, *SaveResult, error) {
	const op = "CatalogEditor.DeleteCategory"

	if !confirmed {
		return 0, nil, e.Wrap(op, e.ErrConfirmationRequired)
	}

	var removed int
	res, err := c.store.Update(ctx, func(s *domain.Snapshot) error {
		n, err := s.DeleteCategory(id)
		if err != nil {
			return err
		}
		removed = n
		return nil
	})
	if err != nil {
		return 0, res, e.Wrap(op, err)
	}

	c.logger.Warnf("Category deleted: %s, products removed: %d", id, removed)
	return removed, res, nil
}

// resolveFlags оставляет isNew, если заданы оба флага.
func (c *CatalogEditor) resolveFlags(p *domain.Product) {
	if p.ResolveFlags() {
		c.logger.Warnf("Product %d marked both new and promo, promo flag cleared", p.ID)
	}
}

func (c *CatalogEditor) normalizeProduct(in ProductInput) ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Image = strings.TrimSpace(in.Image)
	in.Video = strings.TrimSpace(in.Video)
	return in
}
