package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"card-editor/internal/constants"
)

// AssetLoadError: картинку не удалось получить или декодировать.
type AssetLoadError struct {
	Src string
	Err error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("asset load %q: %v", shorten(e.Src), e.Err)
}

func (e *AssetLoadError) Unwrap() error { return e.Err }

var (
	errBadStatus    = errors.New("unexpected status")
	errBadReference = errors.New("unsupported image reference")
)

// Image: декодированная картинка и признак того, что её можно рисовать
// на холсте, который потом будет прочитан (CORS-cleared).
type Image struct {
	Src         string
	Img         image.Image
	CORSCleared bool
}

type Options struct {
	// ProxyBaseURL: origin приложения, на нём живёт image-proxy.
	ProxyBaseURL string
	// Origin отправляется в заголовке Origin и сверяется с Access-Control-Allow-Origin.
	Origin      string
	Timeout     time.Duration
	MaxBytes    int64
	Concurrency int
}

type Loader struct {
	client *http.Client
	opts   Options
	log    *slog.Logger
}

func NewLoader(log *slog.Logger, client *http.Client, opts Options) *Loader {
	if client == nil {
		client = &http.Client{}
	}
	c := *client
	if opts.Timeout > 0 {
		c.Timeout = opts.Timeout
	}
	// анонимный CORS: никаких cookie
	c.Jar = nil
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 25 << 20
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	opts.ProxyBaseURL = strings.TrimRight(opts.ProxyBaseURL, "/")

	return &Loader{client: &c, opts: opts, log: log}
}

// ResolveURL возвращает адрес, по которому реально пойдёт запрос.
// Внешние http(s) ссылки идут через same-origin прокси, относительные
// пути на origin приложения. data: URL не требуют сети. Для ссылок,
// которые ParseRef не принимает, возвращается "".
func (l *Loader) ResolveURL(src string) string {
	kind, ref := ParseRef(src)
	switch kind {
	case RefExternal:
		return l.opts.ProxyBaseURL + constants.ImageProxyPath + "?url=" + url.QueryEscape(ref)
	case RefData:
		return ref
	case RefLocal:
		return l.opts.ProxyBaseURL + ref
	default:
		return ""
	}
}

func (l *Loader) Load(ctx context.Context, src string) (*Image, error) {
	const op = "assets.Loader.Load"

	kind, ref := ParseRef(src)
	switch kind {
	case RefInvalid:
		return nil, &AssetLoadError{Src: src, Err: fmt.Errorf("%s: %w", op, errBadReference)}
	case RefData:
		body, err := decodeDataURL(ref)
		if err != nil {
			return nil, &AssetLoadError{Src: src, Err: fmt.Errorf("%s: %w", op, err)}
		}
		img, err := decode(body)
		if err != nil {
			return nil, &AssetLoadError{Src: src, Err: fmt.Errorf("%s: %w", op, err)}
		}
		return &Image{Src: src, Img: img, CORSCleared: true}, nil
	}

	target := l.ResolveURL(src)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &AssetLoadError{Src: src, Err: fmt.Errorf("%s: %w", op, err)}
	}
	if l.opts.Origin != "" {
		req.Header.Set("Origin", l.opts.Origin)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &AssetLoadError{Src: src, Err: fmt.Errorf("%s: %w", op, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &AssetLoadError{Src: src, Err: fmt.Errorf("%s: %w: %d", op, errBadStatus, resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.opts.MaxBytes+1))
	if err != nil {
		return nil, &AssetLoadError{Src: src, Err: fmt.Errorf("%s: read body: %w", op, err)}
	}
	if int64(len(body)) > l.opts.MaxBytes {
		return nil, &AssetLoadError{Src: src, Err: fmt.Errorf("%s: body exceeds %d bytes", op, l.opts.MaxBytes)}
	}

	img, err := decode(body)
	if err != nil {
		return nil, &AssetLoadError{Src: src, Err: fmt.Errorf("%s: %w", op, err)}
	}

	return &Image{Src: src, Img: img, CORSCleared: l.cleared(resp)}, nil
}

// cleared: same-origin относительные пути всегда чистые, через прокси —
// только если прокси отдал разрешающий Access-Control-Allow-Origin.
func (l *Loader) cleared(resp *http.Response) bool {
	if !strings.HasPrefix(resp.Request.URL.Path, constants.ImageProxyPath) {
		return true
	}
	allow := resp.Header.Get("Access-Control-Allow-Origin")
	return allow == "*" || (allow != "" && allow == l.opts.Origin)
}

// Result: результат одной загрузки из LoadAll.
type Result struct {
	Image *Image
	Err   error
}

// LoadAll грузит картинки параллельно, результаты в порядке srcs.
// Ошибка одной картинки не отменяет остальные.
func (l *Loader) LoadAll(ctx context.Context, srcs []string) []Result {
	results := make([]Result, len(srcs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			img, err := l.Load(gCtx, src)
			if err != nil {
				l.log.Debug("asset load failed", slog.Int("index", i), slog.String("error", err.Error()))
			}
			results[i] = Result{Image: img, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func decode(body []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(body), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func decodeDataURL(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data url")
	}
	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("data url base64: %w", err)
		}
		return b, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("data url escape: %w", err)
	}
	return []byte(s), nil
}

func shorten(src string) string {
	if len(src) > 64 {
		return src[:64] + "..."
	}
	return src
}
