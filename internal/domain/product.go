package domain

import (
	"fmt"
	"strings"

	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// Product описывает товар каталога.
type Product struct {
	ID           int64
	Name         string
	Description  string
	BasePrice    decimal.Decimal
	Emoji        string
	Image        string
	Video        string
	Category     string
	IsNew        bool
	IsPromo      bool
	CustomPrices map[QuantityKey]PriceEntry
}

// ResolveFlags снимает IsPromo, если товар одновременно помечен как новый.
// Возвращает true, если флаги были изменены.
func (p *Product) ResolveFlags() bool {
	if p.IsNew && p.IsPromo {
		p.IsPromo = false
		return true
	}

	return false
}

func (p *Product) Validate() error {
	if p.ID <= 0 {
		return e.ErrInvalidProductID
	}

	if strings.TrimSpace(p.Name) == "" {
		return e.Wrap(fmt.Sprintf("product %d", p.ID), e.ErrProductNameRequired)
	}

	if !p.BasePrice.IsPositive() {
		return e.Wrap(fmt.Sprintf("product %d", p.ID), e.ErrPriceMustBePositive)
	}

	if p.IsNew && p.IsPromo {
		return e.Wrap(fmt.Sprintf("product %d", p.ID), e.ErrNewAndPromo)
	}

	for key, entry := range p.CustomPrices {
		if _, err := ParseQuantityKey(string(key)); err != nil {
			return e.Wrap(fmt.Sprintf("product %d tier %q", p.ID, key), err)
		}

		if err := entry.Validate(); err != nil {
			return e.Wrap(fmt.Sprintf("product %d tier %q", p.ID, key), err)
		}
	}

	return nil
}

func (p *Product) Clone() *Product {
	cp := *p
	if p.CustomPrices != nil {
		cp.CustomPrices = make(map[QuantityKey]PriceEntry, len(p.CustomPrices))
		for k, v := range p.CustomPrices {
			cp.CustomPrices[k] = v
		}
	}

	return &cp
}
