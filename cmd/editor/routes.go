package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	closesession "card-editor/http-server/editor/close"
	exportsession "card-editor/http-server/editor/export"
	getsession "card-editor/http-server/editor/get"
	opensession "card-editor/http-server/editor/open"
	updatesession "card-editor/http-server/editor/update"
	getfont "card-editor/http-server/resources/fonts"
	gettemplate "card-editor/http-server/template/get"
	savetemplate "card-editor/http-server/template/save"
	uptemplate "card-editor/http-server/template/update"
	"card-editor/internal/assets"
	"card-editor/internal/config"
	"card-editor/internal/layout"
	"card-editor/internal/middleware/auth"
	"card-editor/internal/service/editor"
	"card-editor/internal/service/preview"
	"card-editor/internal/storage/mysql"
)

const fontsPath = "/resources/fonts"

func routes(cfg config.Config, log *slog.Logger, storage *mysql.Storage, categories *layout.Resolver, sessions *editor.Registry,
	renderer *preview.Renderer, fonts *assets.FontBook) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Primary-Text"},
		AllowCredentials: true,
		Debug:            cfg.Env == envLocal,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	//ip пользователя
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// Шаблоны для выбора в редакторе (только активные)
	router.Get("/api/templates", gettemplate.GetAllTemplates(log, storage))
	router.Get("/api/template", gettemplate.GetTemplateByCode(log, storage))

	// Сессии редактора
	router.Post("/api/editor/sessions", opensession.OpenSession(log, sessions))
	router.Route("/api/editor/sessions/{id}", func(r chi.Router) {
		r.Get("/", getsession.GetSession(log, sessions))
		r.Delete("/", closesession.CloseSession(log, sessions))
		r.Get("/preview", getsession.GetPreview(log, sessions, renderer))

		r.Post("/value", updatesession.SetValue(log, sessions))
		r.Post("/sync", updatesession.SetSync(log, sessions))
		r.Post("/logos", updatesession.AddLogo(log, sessions))
		r.Post("/logos/remove", updatesession.RemoveLogo(log, sessions))
		r.Post("/logos/scale", updatesession.SetLogoScale(log, sessions))
		r.Post("/logos/gap", updatesession.SetLogoGap(log, sessions))
		r.Post("/photo/scale", updatesession.SetPhotoScale(log, sessions))
		r.Post("/font-size", updatesession.SetFontSize(log, sessions))
		r.Post("/style", updatesession.SetStyle(log, sessions))

		r.Post("/export", exportsession.ExportSession(log, sessions, cfg.HTTPServer.ExportTimeout))
	})

	// Шрифты для @font-face превью
	router.Get(fontsPath+"/{family}", getfont.GetFont(log, fonts))

	// Админка шаблонов
	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass))

	adminRouter.Get("/templates", gettemplate.GetAllTemplatesAdmin(log, storage))
	adminRouter.Get("/template", gettemplate.GetTemplateByCodeAdmin(log, storage))
	adminRouter.Put("/template/update/{code}", uptemplate.UpdateTemplateAdmin(log, storage, categories))
	adminRouter.Post("/template/new", savetemplate.SaveTemplateAdmin(log, storage, categories))

	router.Mount("/api/admin", adminRouter)

	frontend(router, cfg, log)

	return router
}

// frontend отдаёт собранный SPA редактора и админки.
func frontend(router chi.Router, cfg config.Config, log *slog.Logger) {
	frontendDir := cfg.FrontendDir
	if _, err := os.Stat(frontendDir); err != nil {
		log.Warn("Папка фронтенда не найдена, отдаём только API", slog.String("path", frontendDir))
		return
	}

	fileServer := http.FileServer(http.Dir(frontendDir))
	index := filepath.Join(frontendDir, "index.html")

	for _, prefix := range []string{"/assets/*", "/js/*", "/css/*", "/img/*"} {
		router.Handle(prefix, fileServer)
	}

	router.With(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass)).Handle("/admin/*",
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, index)
		}),
	)

	//SPA fallback: любой другой путь → index.html
	router.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(frontendDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		http.ServeFile(w, r, index)
	})
}
