package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLogoData: испорченная сериализованная коллекция логотипов.
// Вызывающий трактует её как пустую коллекцию.
var ErrInvalidLogoData = errors.New("invalid logo data")

type LogoItem struct {
	Src   string  `json:"src"`
	Scale float64 `json:"scale"`
}

// DecodeLogos разбирает старый строковый формат value у logo-правил.
// Пустая строка — пустая коллекция, не ошибка.
func DecodeLogos(raw string) ([]LogoItem, error) {
	const op = "storage.DecodeLogos"

	logos := []LogoItem{}
	if strings.TrimSpace(raw) == "" {
		return logos, nil
	}

	if err := json.Unmarshal([]byte(raw), &logos); err != nil {
		return []LogoItem{}, fmt.Errorf("%s: %w: %v", op, ErrInvalidLogoData, err)
	}
	if logos == nil {
		// "null"
		return []LogoItem{}, nil
	}

	for i, l := range logos {
		if l.Src == "" {
			return []LogoItem{}, fmt.Errorf("%s: %w: item %d has no src", op, ErrInvalidLogoData, i)
		}
	}

	return logos, nil
}

// EncodeLogos: обратное к DecodeLogos, nil кодируется как "[]".
func EncodeLogos(logos []LogoItem) string {
	if logos == nil {
		logos = []LogoItem{}
	}
	b, err := json.Marshal(logos)
	if err != nil {
		// LogoItem состоит из строки и float64, ошибка тут возможна только на NaN
		return "[]"
	}
	return string(b)
}
