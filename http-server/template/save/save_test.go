package save

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"card-editor/internal/layout"
	"card-editor/internal/storage"
)

// MockTemplateCreateProvider реализует интерфейс TemplateCreateProvider для тестов
type MockTemplateCreateProvider struct {
	mock.Mock
}

func (m *MockTemplateCreateProvider) CreateTemplateAdmin(ctx context.Context, res storage.TemplateAdmin) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func post(handler http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/template/new", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// Тест: успешное создание шаблона
func TestSaveTemplateAdmin_Success(t *testing.T) {
	mockProvider := new(MockTemplateCreateProvider)

	mockProvider.On("CreateTemplateAdmin", mock.Anything, mock.MatchedBy(func(res storage.TemplateAdmin) bool {
		var rules []storage.Rule
		if err := json.Unmarshal([]byte(res.Rules), &rules); err != nil {
			return false
		}
		return res.Code == "ID-NEW" &&
			res.Category == "idcard" &&
			res.Name == "Новый пропуск" &&
			res.IsActive &&
			res.StyleMode == "static" &&
			res.BaseImage == "/uploads/new.png" &&
			len(rules) == 2 &&
			rules[1].FontColor == "#112233"
	})).Return(nil)

	handler := SaveTemplateAdmin(slog.Default(), mockProvider, layout.NewResolver(nil))

	rr := post(handler, `{
		"code": "ID-NEW",
		"name": "Новый пропуск",
		"category": "idcard",
		"base_image": "/uploads/new.png",
		"style_mode": "static",
		"is_active": true,
		"rules": [
			{"id": "photo", "type": "photo", "x": 10, "y": 10, "width": 80, "height": 40},
			{"id": "name", "type": "text", "x": 0, "y": 60, "width": 100, "height": 8, "fontColor": "#112233"}
		]
	}`)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	err := render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "created", resp["status"])

	mockProvider.AssertExpectations(t)
}

// Тест: невалидный JSON (синтаксическая ошибка)
func TestSaveTemplateAdmin_InvalidJSON(t *testing.T) {
	mockProvider := new(MockTemplateCreateProvider)
	handler := SaveTemplateAdmin(slog.Default(), mockProvider, layout.NewResolver(nil))

	rr := post(handler, `{`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "ошибка парсинга JSON")
	mockProvider.AssertNotCalled(t, "CreateTemplateAdmin")
}

// Тест: пустые правила сериализуются как пустой массив
func TestSaveTemplateAdmin_EmptyRules(t *testing.T) {
	mockProvider := new(MockTemplateCreateProvider)

	mockProvider.On("CreateTemplateAdmin", mock.Anything, mock.MatchedBy(func(res storage.TemplateAdmin) bool {
		return res.Rules == "[]"
	})).Return(nil)

	handler := SaveTemplateAdmin(slog.Default(), mockProvider, layout.NewResolver(nil))

	rr := post(handler, `{"code": "LY-EMPTY", "category": "lanyard", "base_image": "/b.png", "style_mode": "dynamic"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	mockProvider.AssertExpectations(t)
}

func TestSaveTemplateAdmin_MissingCode(t *testing.T) {
	mockProvider := new(MockTemplateCreateProvider)
	handler := SaveTemplateAdmin(slog.Default(), mockProvider, layout.NewResolver(nil))

	rr := post(handler, `{"category": "idcard", "base_image": "/b.png", "style_mode": "dynamic"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "поле code обязательно")
	mockProvider.AssertNotCalled(t, "CreateTemplateAdmin")
}

// Тест: правило выходит за холст — шаблон не сохраняется
func TestSaveTemplateAdmin_InvalidGeometry(t *testing.T) {
	mockProvider := new(MockTemplateCreateProvider)
	handler := SaveTemplateAdmin(slog.Default(), mockProvider, layout.NewResolver(nil))

	rr := post(handler, `{
		"code": "ID-BAD",
		"category": "idcard",
		"base_image": "/b.png",
		"style_mode": "dynamic",
		"rules": [{"id": "name", "type": "text", "x": 50, "y": 0, "width": 60, "height": 10}]
	}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "некорректный шаблон")
	mockProvider.AssertNotCalled(t, "CreateTemplateAdmin")
}

func TestSaveTemplateAdmin_UnknownCategory(t *testing.T) {
	mockProvider := new(MockTemplateCreateProvider)
	handler := SaveTemplateAdmin(slog.Default(), mockProvider, layout.NewResolver(nil))

	rr := post(handler, `{"code": "X", "category": "poster", "base_image": "/b.png", "style_mode": "dynamic"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockProvider.AssertNotCalled(t, "CreateTemplateAdmin")
}

func TestSaveTemplateAdmin_Duplicate(t *testing.T) {
	mockProvider := new(MockTemplateCreateProvider)
	mockProvider.On("CreateTemplateAdmin", mock.Anything, mock.Anything).
		Return(fmt.Errorf("storage.mysql.CreateTemplateAdmin: %w", storage.ErrTemplateExists))

	handler := SaveTemplateAdmin(slog.Default(), mockProvider, layout.NewResolver(nil))

	rr := post(handler, `{"code": "ID-01", "category": "idcard", "base_image": "/b.png", "style_mode": "dynamic"}`)

	assert.Equal(t, http.StatusConflict, rr.Code)
	mockProvider.AssertExpectations(t)
}

// Тест: ошибка создания в провайдере (БД)
func TestSaveTemplateAdmin_ProviderError(t *testing.T) {
	mockProvider := new(MockTemplateCreateProvider)
	mockProvider.On("CreateTemplateAdmin", mock.Anything, mock.Anything).
		Return(errors.New("connection refused"))

	handler := SaveTemplateAdmin(slog.Default(), mockProvider, layout.NewResolver(nil))

	rr := post(handler, `{"code": "ID-02", "category": "idcard", "base_image": "/b.png", "style_mode": "dynamic"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "ошибка создания шаблона")
	mockProvider.AssertExpectations(t)
}

// Тест: категория, добавленная только в конфиге, сохраняется
func TestSaveTemplateAdmin_ConfigCategory(t *testing.T) {
	mockProvider := new(MockTemplateCreateProvider)
	mockProvider.On("CreateTemplateAdmin", mock.Anything, mock.MatchedBy(func(res storage.TemplateAdmin) bool {
		return res.Category == "badge"
	})).Return(nil)

	categories := layout.NewResolver(map[string]layout.CategorySpec{"badge": {
		PreviewWidth: 300, PreviewHeight: 200, ExportWidth: 900, ExportHeight: 600,
	}})
	handler := SaveTemplateAdmin(slog.Default(), mockProvider, categories)

	rr := post(handler, `{"code": "B-1", "category": "badge", "base_image": "/b.png", "style_mode": "dynamic"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	mockProvider.AssertExpectations(t)
}
