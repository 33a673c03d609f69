package http

import (
	"encoding/json"
	"fmt"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/internal/repository/converter"
	"github.com/DRSN-tech/miniapp-backend/internal/usecase"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// REQUESTS

type AddItemRequest struct {
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type SetQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

type ModeRequest struct {
	Mode string `json:"mode"`
}

// DetailRequest — адрес доставки или время прибытия, в зависимости от режима.
type DetailRequest struct {
	Detail string `json:"detail"`
}

type ProductRequest struct {
	Name         string                               `json:"name"`
	Description  string                               `json:"description"`
	Price        decimal.Decimal                      `json:"price"`
	Emoji        string                               `json:"emoji"`
	Image        string                               `json:"image"`
	Video        string                               `json:"video"`
	Category     string                               `json:"category"`
	IsNew        bool                                 `json:"isNew"`
	IsPromo      bool                                 `json:"isPromo"`
	CustomPrices map[string]converter.PriceEntryModel `json:"customPrices"`
}

type CategoryRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

type SettingsRequest struct {
	TelegramUsername string `json:"telegram_username"`
	ChannelLink      string `json:"channel_link"`
}

type IdentityRequest struct {
	Identity string `json:"identity"`
}

// RESPONSES

type LineResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Emoji     string          `json:"emoji"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

type CartResponse struct {
	Mode        string          `json:"mode"`
	State       string          `json:"state"`
	Lines       []LineResponse  `json:"lines"`
	Total       decimal.Decimal `json:"total"`
	Address     string          `json:"address,omitempty"`
	ArrivalTime string          `json:"arrival_time,omitempty"`
}

type ReceiptResponse struct {
	OrderID  string          `json:"order_id"`
	Total    decimal.Decimal `json:"total"`
	Message  string          `json:"message"`
	DeepLink string          `json:"deep_link,omitempty"`
}

type PriceResponse struct {
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Mode      string          `json:"mode"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

type SaveResponse struct {
	Outcome         string `json:"outcome"`
	Message         string `json:"message"`
	CacheOK         bool   `json:"cache_ok"`
	RemoteOK        bool   `json:"remote_ok"`
	RemotePersisted bool   `json:"remote_persisted"`
}

type MutationResponse struct {
	Data any           `json:"data,omitempty"`
	Save *SaveResponse `json:"save,omitempty"`
}

type SettingsResponse struct {
	TelegramUsername string   `json:"telegram_username"`
	ChannelLink      string   `json:"channel_link"`
	Whitelist        []string `json:"whitelist,omitempty"`
}

// CatalogResponse — публичная часть снимка: без списка операторов.
type CatalogResponse struct {
	Restaurant json.RawMessage                     `json:"restaurant"`
	Categories map[string]converter.CategoryModel  `json:"categories"`
	Products   map[string][]converter.ProductModel `json:"products"`
	Admin      SettingsResponse                    `json:"admin"`
}

type LoadResponse struct {
	Source   string `json:"source"`
	Products int    `json:"products"`
}

// MAPPERS

func (p *ProductRequest) ToInput() (usecase.ProductInput, error) {
	in := usecase.ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Emoji:       p.Emoji,
		Image:       p.Image,
		Video:       p.Video,
		Category:    p.Category,
		IsNew:       p.IsNew,
		IsPromo:     p.IsPromo,
	}

	if len(p.CustomPrices) == 0 {
		return in, nil
	}

	in.CustomPrices = make(map[domain.QuantityKey]domain.PriceEntry, len(p.CustomPrices))
	for rawKey, m := range p.CustomPrices {
		key, err := domain.ParseQuantityKey(rawKey)
		if err != nil {
			return usecase.ProductInput{}, e.Wrap(fmt.Sprintf("tier %q", rawKey), err)
		}

		if _, dup := in.CustomPrices[key]; dup {
			return usecase.ProductInput{}, e.Wrap(fmt.Sprintf("tier %q", rawKey), e.ErrDuplicatePriceTier)
		}

		entry, err := converter.ToDomainPriceEntry(m)
		if err != nil {
			return usecase.ProductInput{}, e.Wrap(fmt.Sprintf("tier %q", rawKey), err)
		}
		in.CustomPrices[key] = entry
	}

	return in, nil
}

func (c *CategoryRequest) ToInput() usecase.CategoryInput {
	return usecase.CategoryInput{
		ID:          c.ID,
		Name:        c.Name,
		Emoji:       c.Emoji,
		Description: c.Description,
	}
}

func ToCartResponse(view *usecase.CartView) *CartResponse {
	lines := make([]LineResponse, 0, len(view.Cart.Lines))
	for _, l := range view.Cart.Lines {
		lines = append(lines, LineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Emoji:     l.Emoji,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.Total,
		})
	}

	return &CartResponse{
		Mode:        string(view.Cart.Mode),
		State:       string(view.State),
		Lines:       lines,
		Total:       view.Cart.Total,
		Address:     view.Address,
		ArrivalTime: view.ArrivalTime,
	}
}

func ToReceiptResponse(r *usecase.OrderReceipt) *ReceiptResponse {
	return &ReceiptResponse{
		OrderID:  r.Order.ID.String(),
		Total:    r.Order.Total,
		Message:  r.Message,
		DeepLink: r.DeepLink,
	}
}

func ToSaveResponse(r *usecase.SaveResult) *SaveResponse {
	if r == nil {
		return nil
	}

	return &SaveResponse{
		Outcome:         string(r.Outcome()),
		Message:         r.Message(),
		CacheOK:         r.CacheOK,
		RemoteOK:        r.RemoteOK,
		RemotePersisted: r.RemoteOK && !r.RemoteNotPersisted,
	}
}

func ToCatalogResponse(s *domain.Snapshot) *CatalogResponse {
	m := converter.ToSnapshotModel(s)

	return &CatalogResponse{
		Restaurant: m.Restaurant,
		Categories: m.Categories,
		Products:   m.Products,
		Admin: SettingsResponse{
			TelegramUsername: m.Admin.TelegramUsername,
			ChannelLink:      m.Admin.ChannelLink,
		},
	}
}

func ToSettingsResponse(a domain.AdminConfig) *SettingsResponse {
	m := converter.ToAdminModel(a)

	return &SettingsResponse{
		TelegramUsername: m.TelegramUsername,
		ChannelLink:      m.ChannelLink,
		Whitelist:        m.Whitelist,
	}
}
