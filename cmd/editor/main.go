package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"card-editor/internal/assets"
	"card-editor/internal/config"
	"card-editor/internal/layout"
	"card-editor/internal/service/compose"
	"card-editor/internal/service/editor"
	"card-editor/internal/service/preview"
	"card-editor/internal/storage"
	"card-editor/internal/storage/mysql"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustConfig()

	log := setupLogger(cfg.Env, cfg.ErrorLogPath)

	store, err := mysql.New(*cfg)
	if err != nil {
		log.Error("failed to open db", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	fonts, err := assets.NewFontBook(cfg.Style.FontsDir)
	if err != nil {
		log.Error("failed to load fonts", slog.String("error", err.Error()))
		os.Exit(1)
	}

	loader := assets.NewLoader(log, nil, assets.Options{
		ProxyBaseURL: cfg.Assets.ProxyBaseURL,
		Origin:       cfg.Assets.Origin,
		Timeout:      cfg.Assets.Timeout,
		MaxBytes:     cfg.Assets.MaxBytes,
		Concurrency:  cfg.Assets.Concurrency,
	})

	compositor := compose.NewCompositor(log, loader, fonts, compose.Options{
		Format:      cfg.Export.Format,
		JPEGQuality: cfg.Export.JPEGQuality,
	})

	resolver := layout.NewResolver(categories(cfg.Categories))

	sessions := editor.NewRegistry(log, store, resolver, compositor,
		layout.Style{Font: cfg.Style.Font, Color: cfg.Style.Color}, callbacks(log))

	// брошенные сессии закрываются по простою
	go sessions.Run(context.Background(), cfg.Editor.SessionIdleTimeout)

	renderer := preview.NewRenderer(fonts, fontsPath)

	log.Info("server started", slog.String("address", cfg.Address), slog.String("env", cfg.Env))

	srv := &http.Server{
		Addr:        cfg.Address,
		Handler:     routes(*cfg, log, store, resolver, sessions, renderer, fonts),
		ReadTimeout: cfg.HTTPServer.Timeout,
		// ответ экспорта пишется после композиции
		WriteTimeout: cfg.HTTPServer.Timeout + cfg.HTTPServer.ExportTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	err = srv.ListenAndServe()
	if err != nil {
		log.Error("failed start server", slog.String("error", err.Error()))
	}

	log.Error("server stopped")
}

func categories(in map[string]config.CategorySpec) map[string]layout.CategorySpec {
	out := make(map[string]layout.CategorySpec, len(in))
	for name, c := range in {
		out[name] = layout.CategorySpec{
			Category:        name,
			PreviewWidth:    c.PreviewWidth,
			PreviewHeight:   c.PreviewHeight,
			ExportWidth:     c.ExportWidth,
			ExportHeight:    c.ExportHeight,
			DefaultFontSize: c.DefaultFontSize,
			DefaultLogoGap:  c.DefaultLogoGap,
		}
	}
	return out
}

// callbacks строит хост редактора. Экспорт отдаётся клиенту HTTP-ответом,
// здесь остаётся только журнал.
func callbacks(log *slog.Logger) func(tpl *storage.Template) editor.Callbacks {
	return func(tpl *storage.Template) editor.Callbacks {
		l := log.With(slog.String("template", tpl.Code))
		return editor.Callbacks{
			OnExport: func(image []byte, fileName, primaryText string) {
				l.Info("card exported",
					slog.String("file", fileName),
					slog.String("primary_text", primaryText),
					slog.Int("bytes", len(image)))
			},
			OnClose: func() {
				l.Info("editor closed")
			},
		}
	}
}

type dualHandler struct {
	coreHandler  slog.Handler
	errorHandler slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.coreHandler.Enabled(ctx, lvl) || h.errorHandler.Enabled(ctx, lvl)
}

func (h *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error

	// Всегда пишем в основной вывод (stdout)
	if h.coreHandler.Enabled(ctx, r.Level) {
		err = h.coreHandler.Handle(ctx, r)
		if err != nil {
			return err
		}
	}

	// Ошибки дублируем в файл, его сбой не роняет запись в stdout
	if r.Level >= slog.LevelError && h.errorHandler.Enabled(ctx, r.Level) {
		_ = h.errorHandler.Handle(ctx, r.Clone())
	}

	return err
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithAttrs(attrs),
		errorHandler: h.errorHandler.WithAttrs(attrs),
	}
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithGroup(name),
		errorHandler: h.errorHandler.WithGroup(name),
	}
}

func setupLogger(env, errorLogPath string) *slog.Logger {
	var level slog.Level = slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	// Основной handler — пишет всё в stdout, JSON только для dev
	var coreHandler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if env == envDev {
		coreHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	if errorLogPath == "" {
		return slog.New(coreHandler)
	}

	// Файловый handler — только ошибки
	errorFile, err := os.OpenFile(errorLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Warn("Cannot open error log file", "path", errorLogPath, "error", err)
		return slog.New(coreHandler)
	}

	errorHandler := slog.NewTextHandler(errorFile, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	return slog.New(&dualHandler{
		coreHandler:  coreHandler,
		errorHandler: errorHandler,
	})
}
