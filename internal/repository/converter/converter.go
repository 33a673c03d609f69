package converter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

var requiredKeys = []string{"restaurant", "categories", "products", "admin"}

// Unmarshal разбирает снимок из JSON, нормализует ключи ценовых уровней и проверяет инварианты.
func Unmarshal(data []byte) (*domain.Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %v", e.ErrInvalidSnapshot, err))
	}

	for _, key := range requiredKeys {
		if _, ok := top[key]; !ok {
			return nil, e.Wrap(fmt.Sprintf("missing %q", key), e.ErrInvalidSnapshot)
		}
	}

	var m SnapshotModel
	if err := json.Unmarshal(data, &m); err != nil {
		if errors.Is(err, e.ErrValidation) {
			return nil, err
		}
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %v", e.ErrMalformedSnapshot, err))
	}

	s, err := ToDomainSnapshot(&m)
	if err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Marshal сериализует снимок компактно. Ключи карт сортируются, поэтому
// повторная сериализация разобранного снимка даёт те же байты.
func Marshal(s *domain.Snapshot) ([]byte, error) {
	data, err := json.Marshal(ToSnapshotModel(s))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, nil
}

// MarshalIndent — то же, что Marshal, с отступом в два пробела для файлового хранилища.
func MarshalIndent(s *domain.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(ToSnapshotModel(s), "", "  ")
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, nil
}

func ToSnapshotModel(s *domain.Snapshot) *SnapshotModel {
	m := &SnapshotModel{
		Restaurant: s.Restaurant,
		Categories: make(map[string]CategoryModel, len(s.Categories)),
		Products:   make(map[string][]ProductModel, len(s.Products)),
		Admin:      ToAdminModel(s.Admin),
	}

	if len(bytes.TrimSpace(m.Restaurant)) == 0 {
		m.Restaurant = json.RawMessage(`{}`)
	}

	for id, c := range s.Categories {
		m.Categories[id] = CategoryModel{Name: c.Name, Emoji: c.Emoji, Description: c.Description}
	}

	for categoryID, products := range s.Products {
		list := make([]ProductModel, 0, len(products))
		for _, p := range products {
			list = append(list, ToProductModel(p))
		}
		m.Products[categoryID] = list
	}

	return m
}

func ToDomainSnapshot(m *SnapshotModel) (*domain.Snapshot, error) {
	s := domain.NewSnapshot()

	if len(bytes.TrimSpace(m.Restaurant)) > 0 && !bytes.Equal(bytes.TrimSpace(m.Restaurant), []byte("null")) {
		s.Restaurant = append(json.RawMessage(nil), m.Restaurant...)
	}

	for id, c := range m.Categories {
		s.Categories[id] = &domain.Category{ID: id, Name: c.Name, Emoji: c.Emoji, Description: c.Description}
	}

	for categoryID, list := range m.Products {
		products := make([]*domain.Product, 0, len(list))
		for _, pm := range list {
			p, err := ToDomainProduct(pm)
			if err != nil {
				return nil, e.Wrap(fmt.Sprintf("category %q", categoryID), err)
			}
			products = append(products, p)
		}
		s.Products[categoryID] = products
	}

	s.Admin = ToDomainAdmin(m.Admin)

	return s, nil
}

func ToProductModel(p *domain.Product) ProductModel {
	m := ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       json.Number(p.BasePrice.String()),
		Emoji:       p.Emoji,
		Image:       p.Image,
		Video:       p.Video,
		Category:    p.Category,
		IsNew:       p.IsNew,
		IsPromo:     p.IsPromo,
	}

	if len(p.CustomPrices) > 0 {
		m.CustomPrices = make(map[string]PriceEntryModel, len(p.CustomPrices))
		for key, entry := range p.CustomPrices {
			m.CustomPrices[string(key)] = ToPriceEntryModel(entry)
		}
	}

	return m
}

func ToDomainProduct(m ProductModel) (*domain.Product, error) {
	price, err := parseNumber(m.Price)
	if err != nil {
		return nil, e.Wrap(fmt.Sprintf("product %d price", m.ID), err)
	}

	p := &domain.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		BasePrice:   price,
		Emoji:       m.Emoji,
		Image:       m.Image,
		Video:       m.Video,
		Category:    m.Category,
		IsNew:       m.IsNew,
		IsPromo:     m.IsPromo,
	}

	if len(m.CustomPrices) == 0 {
		return p, nil
	}

	p.CustomPrices = make(map[domain.QuantityKey]domain.PriceEntry, len(m.CustomPrices))
	for rawKey, em := range m.CustomPrices {
		key, err := domain.ParseQuantityKey(rawKey)
		if err != nil {
			return nil, e.Wrap(fmt.Sprintf("product %d tier %q", m.ID, rawKey), err)
		}

		if _, dup := p.CustomPrices[key]; dup {
			return nil, e.Wrap(fmt.Sprintf("product %d tier %q", m.ID, rawKey), e.ErrDuplicatePriceTier)
		}

		entry, err := ToDomainPriceEntry(em)
		if err != nil {
			return nil, e.Wrap(fmt.Sprintf("product %d tier %q", m.ID, rawKey), err)
		}
		p.CustomPrices[key] = entry
	}

	return p, nil
}

func ToPriceEntryModel(entry domain.PriceEntry) PriceEntryModel {
	if entry.Kind == domain.PriceDifferentiated {
		return PriceEntryModel{
			Delivery: json.Number(entry.Delivery.String()),
			Pickup:   json.Number(entry.Pickup.String()),
		}
	}

	return PriceEntryModel{Amount: json.Number(entry.Amount.String())}
}

func ToDomainPriceEntry(m PriceEntryModel) (domain.PriceEntry, error) {
	if !m.IsDifferentiated() {
		amount, err := parseNumber(m.Amount)
		if err != nil {
			return domain.PriceEntry{}, err
		}
		return domain.SimplePrice(amount), nil
	}

	delivery, err := parseNumber(m.Delivery)
	if err != nil {
		return domain.PriceEntry{}, err
	}

	pickup, err := parseNumber(m.Pickup)
	if err != nil {
		return domain.PriceEntry{}, err
	}

	return domain.DifferentiatedPrice(delivery, pickup), nil
}

func ToAdminModel(a domain.AdminConfig) AdminModel {
	whitelist := make([]string, len(a.Whitelist))
	copy(whitelist, a.Whitelist)

	return AdminModel{
		TelegramUsername: a.TelegramHandle,
		ChannelLink:      a.ChannelLink,
		Whitelist:        whitelist,
	}
}

func ToDomainAdmin(m AdminModel) domain.AdminConfig {
	whitelist := make([]string, 0, len(m.Whitelist))
	whitelist = append(whitelist, m.Whitelist...)

	return domain.AdminConfig{
		TelegramHandle: m.TelegramUsername,
		ChannelLink:    m.ChannelLink,
		Whitelist:      whitelist,
	}
}

func parseNumber(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Zero, e.ErrInvalidPrice
	}

	return d, nil
}
