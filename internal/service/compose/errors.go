package compose

import (
	"errors"
	"fmt"
	"strings"
)

var ErrExportInProgress = errors.New("export already in progress")

// TemplateLoadError: базовая картинка шаблона не загрузилась, экспорт прерван.
type TemplateLoadError struct {
	Src string
	Err error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("template base image %q failed to load: %v", e.Src, e.Err)
}

func (e *TemplateLoadError) Unwrap() error { return e.Err }

// CanvasSecurityError: на холст попала картинка без CORS-разрешения,
// прочитать его нельзя. Это ошибка настройки прокси, а не отсутствующий файл.
type CanvasSecurityError struct {
	Sources []string
}

func (e *CanvasSecurityError) Error() string {
	return fmt.Sprintf("canvas is tainted by %d cross-origin image(s) [%s]: "+
		"the image proxy did not return Access-Control-Allow-Origin for them, check the proxy configuration",
		len(e.Sources), strings.Join(e.Sources, ", "))
}
