package domain

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/DRSN-tech/miniapp-backend/pkg/e"
)

// Snapshot — полное состояние каталога и настроек. Читается и пишется только целиком.
type Snapshot struct {
	Restaurant json.RawMessage // непрозрачные метаданные для отображения
	Categories map[string]*Category
	Products   map[string][]*Product // ключ — ID категории
	Admin      AdminConfig
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Restaurant: json.RawMessage(`{}`),
		Categories: make(map[string]*Category),
		Products:   make(map[string][]*Product),
	}
}

// Validate проверяет инварианты снимка: ссылки на категории, уникальность id, цены, список операторов.
func (s *Snapshot) Validate() error {
	seen := make(map[int64]string)
	for categoryID, products := range s.Products {
		if len(products) > 0 {
			if _, ok := s.Categories[categoryID]; !ok {
				return e.Wrap(fmt.Sprintf("category %q", categoryID), e.ErrDanglingCategory)
			}
		}

		for _, p := range products {
			if p == nil {
				return e.Wrap(fmt.Sprintf("category %q", categoryID), e.ErrMalformedSnapshot)
			}

			if err := p.Validate(); err != nil {
				return err
			}

			if p.Category != categoryID {
				return e.Wrap(fmt.Sprintf("product %d in %q refers to %q", p.ID, categoryID, p.Category), e.ErrCategoryMismatch)
			}

			if other, ok := seen[p.ID]; ok {
				return e.Wrap(fmt.Sprintf("product %d in %q and %q", p.ID, other, categoryID), e.ErrDuplicateProductID)
			}
			seen[p.ID] = categoryID
		}
	}

	for id, c := range s.Categories {
		if c == nil || c.ID != id {
			return e.Wrap(fmt.Sprintf("category %q", id), e.ErrMalformedSnapshot)
		}

		if err := c.Validate(); err != nil {
			return e.Wrap(fmt.Sprintf("category %q", id), err)
		}
	}

	return s.Admin.Validate()
}

// NextProductID возвращает max(id) + 1.
func (s *Snapshot) NextProductID() int64 {
	var maxID int64
	for _, products := range s.Products {
		for _, p := range products {
			if p.ID > maxID {
				maxID = p.ID
			}
		}
	}

	return maxID + 1
}

// FindProduct ищет товар по всем спискам категорий.
func (s *Snapshot) FindProduct(id int64) (*Product, bool) {
	for _, products := range s.Products {
		for _, p := range products {
			if p.ID == id {
				return p, true
			}
		}
	}

	return nil, false
}

// CategoryIDs возвращает ID категорий в отсортированном порядке.
func (s *Snapshot) CategoryIDs() []string {
	ids := make([]string, 0, len(s.Categories))
	for id := range s.Categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// AllProducts возвращает товары в порядке категорий, внутри категории — в порядке списка.
func (s *Snapshot) AllProducts() []*Product {
	keys := make([]string, 0, len(s.Products))
	for k := range s.Products {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var result []*Product
	for _, k := range keys {
		result = append(result, s.Products[k]...)
	}

	return result
}

// FileProduct добавляет товар в конец списка его категории.
func (s *Snapshot) FileProduct(p *Product) {
	s.Products[p.Category] = append(s.Products[p.Category], p)
}

// RemoveProduct удаляет товар из всех списков, в которых он встречается.
func (s *Snapshot) RemoveProduct(id int64) bool {
	found := false
	for categoryID, products := range s.Products {
		kept := products[:0:0]
		for _, p := range products {
			if p.ID == id {
				found = true
				continue
			}
			kept = append(kept, p)
		}
		s.Products[categoryID] = kept
	}

	return found
}

// ReplaceProduct заменяет запись на месте; при смене категории переносит её в конец нового списка.
func (s *Snapshot) ReplaceProduct(p *Product) bool {
	for categoryID, products := range s.Products {
		for i, old := range products {
			if old.ID != p.ID {
				continue
			}

			if categoryID == p.Category {
				products[i] = p
				return true
			}

			s.Products[categoryID] = append(products[:i:i], products[i+1:]...)
			s.FileProduct(p)
			return true
		}
	}

	return false
}

// RenameCategory переносит категорию на новый ключ вместе со всеми её товарами.
// Все шаги выполняются над одним снимком, поэтому вызывающий видит либо старое, либо новое состояние.
func (s *Snapshot) RenameCategory(oldID, newID string) error {
	category, ok := s.Categories[oldID]
	if !ok {
		return e.Wrap(fmt.Sprintf("category %q", oldID), e.ErrCategoryNotFound)
	}

	if oldID == newID {
		return nil
	}

	if _, exists := s.Categories[newID]; exists {
		return e.Wrap(fmt.Sprintf("category %q", newID), e.ErrCategoryExists)
	}

	renamed := category.Clone()
	renamed.ID = newID
	s.Categories[newID] = renamed
	delete(s.Categories, oldID)

	moved, hadList := s.Products[oldID]
	delete(s.Products, oldID)
	for _, p := range moved {
		p.Category = newID
	}

	if hadList {
		s.Products[newID] = append(s.Products[newID], moved...)
	}

	return nil
}

// DeleteCategory удаляет категорию и все её товары. Возвращает число удалённых товаров.
func (s *Snapshot) DeleteCategory(id string) (int, error) {
	if _, ok := s.Categories[id]; !ok {
		return 0, e.Wrap(fmt.Sprintf("category %q", id), e.ErrCategoryNotFound)
	}

	removed := len(s.Products[id])
	delete(s.Categories, id)
	delete(s.Products, id)

	for categoryID, products := range s.Products {
		kept := products[:0:0]
		for _, p := range products {
			if p.Category == id {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		s.Products[categoryID] = kept
	}

	return removed, nil
}

// Clone делает глубокую копию снимка.
func (s *Snapshot) Clone() *Snapshot {
	cp := &Snapshot{
		Restaurant: append(json.RawMessage(nil), s.Restaurant...),
		Categories: make(map[string]*Category, len(s.Categories)),
		Products:   make(map[string][]*Product, len(s.Products)),
		Admin:      s.Admin.Clone(),
	}

	for id, c := range s.Categories {
		cp.Categories[id] = c.Clone()
	}

	for id, products := range s.Products {
		list := make([]*Product, len(products))
		for i, p := range products {
			list[i] = p.Clone()
		}
		cp.Products[id] = list
	}

	return cp
}
