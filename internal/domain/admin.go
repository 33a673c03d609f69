package domain

import (
	"fmt"
	"strings"

	"github.com/DRSN-tech/miniapp-backend/pkg/e"
)

// AdminConfig — настройки оператора: куда отправлять заказы, ссылка на канал
// и список идентичностей, которым разрешено редактирование.
type AdminConfig struct {
	TelegramHandle string
	ChannelLink    string
	Whitelist      []string // регистронезависимое множество в порядке добавления
}

// NormalizeIdentity убирает пробелы и ведущий '@'.
func NormalizeIdentity(identity string) string {
	return strings.TrimPrefix(strings.TrimSpace(identity), "@")
}

func (a *AdminConfig) IsWhitelisted(identity string) bool {
	identity = NormalizeIdentity(identity)
	if identity == "" {
		return false
	}

	for _, admin := range a.Whitelist {
		if strings.EqualFold(NormalizeIdentity(admin), identity) {
			return true
		}
	}

	return false
}

// AddIdentity добавляет оператора. Повтор (без учёта регистра) — конфликт.
func (a *AdminConfig) AddIdentity(identity string) error {
	identity = NormalizeIdentity(identity)
	if identity == "" {
		return e.ErrIdentityRequired
	}

	if a.IsWhitelisted(identity) {
		return e.ErrAdminExists
	}

	a.Whitelist = append(a.Whitelist, identity)
	return nil
}

func (a *AdminConfig) RemoveIdentity(identity string) error {
	identity = NormalizeIdentity(identity)
	for i, admin := range a.Whitelist {
		if strings.EqualFold(NormalizeIdentity(admin), identity) {
			a.Whitelist = append(a.Whitelist[:i], a.Whitelist[i+1:]...)
			return nil
		}
	}

	return e.ErrAdminNotFound
}

// Validate проверяет, что список операторов — множество без учёта регистра и '@'.
func (a *AdminConfig) Validate() error {
	seen := make(map[string]struct{}, len(a.Whitelist))
	for _, admin := range a.Whitelist {
		key := strings.ToLower(NormalizeIdentity(admin))
		if _, ok := seen[key]; ok {
			return e.Wrap(fmt.Sprintf("admin %q", admin), e.ErrDuplicateAdmin)
		}
		seen[key] = struct{}{}
	}

	return nil
}

func (a AdminConfig) Clone() AdminConfig {
	cp := a
	cp.Whitelist = append([]string(nil), a.Whitelist...)
	return cp
}
