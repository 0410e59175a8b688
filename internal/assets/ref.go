package assets

import (
	"net/url"
	"strings"
)

// RefKind: вид ссылки на картинку в шаблоне или состоянии элемента.
type RefKind int

const (
	RefInvalid RefKind = iota
	// RefExternal: http(s) с хостом, грузится через image-proxy.
	RefExternal
	// RefData: data: URL, декодируется без сети.
	RefData
	// RefLocal: путь на origin приложения, с ведущим "/" или без.
	RefLocal
)

// ParseRef классифицирует ссылку. Загрузчик и превью пользуются одной
// и той же классификацией, поэтому что рисуется при экспорте, то видно
// и в превью. Для RefLocal возвращается путь от корня.
func ParseRef(src string) (RefKind, string) {
	src = strings.TrimSpace(src)
	if src == "" {
		return RefInvalid, ""
	}
	if strings.HasPrefix(src, "data:") {
		return RefData, src
	}

	u, err := url.Parse(src)
	if err != nil {
		return RefInvalid, ""
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return RefInvalid, ""
		}
		return RefExternal, src
	case "":
		return RefLocal, "/" + strings.TrimLeft(src, "/")
	}
	return RefInvalid, ""
}
