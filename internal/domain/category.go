package domain

import (
	"strings"

	"github.com/DRSN-tech/miniapp-backend/pkg/e"
)

// Category описывает категорию каталога. ID — ключ в снимке и ссылка из Product.Category.
type Category struct {
	ID          string
	Name        string
	Emoji       string
	Description string
}

func NewCategory(id, name, emoji, description string) *Category {
	return &Category{
		ID:          strings.TrimSpace(id),
		Name:        strings.TrimSpace(name),
		Emoji:       strings.TrimSpace(emoji),
		Description: strings.TrimSpace(description),
	}
}

func (c *Category) Validate() error {
	if c.ID == "" {
		return e.ErrCategoryIDRequired
	}

	if c.Name == "" {
		return e.ErrCategoryNameRequired
	}

	return nil
}

func (c *Category) Clone() *Category {
	cp := *c
	return &cp
}
