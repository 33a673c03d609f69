package converter

import (
	"bytes"
	"encoding/json"

	"github.com/DRSN-tech/miniapp-backend/pkg/e"
)

// SnapshotModel — формат снимка на проводе и в хранилищах.
type SnapshotModel struct {
	Restaurant json.RawMessage           `json:"restaurant"`
	Categories map[string]CategoryModel  `json:"categories"`
	Products   map[string][]ProductModel `json:"products"`
	Admin      AdminModel                `json:"admin"`
}

// CategoryModel — запись категории; ID хранится ключом карты.
type CategoryModel struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

// ProductModel — запись товара.
type ProductModel struct {
	ID           int64                      `json:"id"`
	Name         string                     `json:"name"`
	Description  string                     `json:"description"`
	Price        json.Number                `json:"price"`
	Emoji        string                     `json:"emoji"`
	Image        string                     `json:"image"`
	Video        string                     `json:"video,omitempty"`
	Category     string                     `json:"category"`
	IsNew        bool                       `json:"isNew"`
	IsPromo      bool                       `json:"isPromo"`
	CustomPrices map[string]PriceEntryModel `json:"customPrices,omitempty"`
}

// AdminModel — настройки оператора.
type AdminModel struct {
	TelegramUsername string   `json:"telegram_username"`
	ChannelLink      string   `json:"channel_link"`
	Whitelist        []string `json:"whitelist"`
}

// PriceEntryModel — цена уровня на проводе: либо число, либо объект {delivery, pickup}.
// Форма определяется только здесь; дальше вариант передаётся явно.
type PriceEntryModel struct {
	Amount   json.Number
	Delivery json.Number
	Pickup   json.Number
}

type differentiatedModel struct {
	Delivery *json.Number `json:"delivery"`
	Pickup   *json.Number `json:"pickup"`
}

func (p PriceEntryModel) IsDifferentiated() bool {
	return p.Amount == ""
}

func (p PriceEntryModel) MarshalJSON() ([]byte, error) {
	if p.IsDifferentiated() {
		return json.Marshal(differentiatedModel{Delivery: &p.Delivery, Pickup: &p.Pickup})
	}

	return json.Marshal(p.Amount)
}

func (p *PriceEntryModel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var m differentiatedModel
		if err := json.Unmarshal(data, &m); err != nil {
			return e.Wrap("customPrices", e.ErrInvalidPrice)
		}

		if m.Delivery == nil || m.Pickup == nil || *m.Delivery == "" || *m.Pickup == "" {
			return e.Wrap("customPrices: delivery and pickup are both required", e.ErrInvalidPrice)
		}

		*p = PriceEntryModel{Delivery: *m.Delivery, Pickup: *m.Pickup}
		return nil
	}

	var amount json.Number
	if err := json.Unmarshal(data, &amount); err != nil || amount == "" {
		return e.Wrap("customPrices", e.ErrInvalidPrice)
	}

	*p = PriceEntryModel{Amount: amount}
	return nil
}
