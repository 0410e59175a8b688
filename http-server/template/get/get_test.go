package get

import (
	"context"
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

	"card-editor/internal/storage"
)

// MockTemplateJSON реализует интерфейс TemplateJSON для тестов
type MockTemplateJSON struct {
	mock.Mock
}

func (m *MockTemplateJSON) GetTemplateByCode(ctx context.Context, code string) (*storage.Template, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Template), args.Error(1)
}

func (m *MockTemplateJSON) GetAllTemplates(ctx context.Context) ([]*storage.Template, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.Template), args.Error(1)
}

func (m *MockTemplateJSON) GetTemplateByCodeAdmin(ctx context.Context, code string) (*storage.Template, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Template), args.Error(1)
}

func (m *MockTemplateJSON) GetAllTemplatesAdmin(ctx context.Context) ([]*storage.Template, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.Template), args.Error(1)
}

// Тест: успешное получение шаблона по коду
func TestGetTemplateByCode_Success(t *testing.T) {
	mockStorage := new(MockTemplateJSON)

	template := &storage.Template{
		ID:        56,
		Code:      "ID-56",
		Name:      "Пропуск сотрудника",
		Category:  "idcard",
		BaseImage: "/uploads/base.png",
		StyleMode: "dynamic",
		Rules: []storage.Rule{
			{ID: "photo", Type: "photo", X: 10, Y: 10, Width: 80, Height: 40},
			{ID: "name", Type: "text", X: 0, Y: 60, Width: 100, Height: 8, FontFamily: "Go"},
		},
	}

	mockStorage.On("GetTemplateByCode", mock.Anything, "ID-56").
		Return(template, nil)

	handler := GetTemplateByCode(slog.Default(), mockStorage)

	req := httptest.NewRequest(http.MethodGet, "/api/template?code=ID-56", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp ResponseTemplate
	err := render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp)
	assert.NoError(t, err)

	assert.Equal(t, 56, resp.ID)
	assert.Equal(t, "ID-56", resp.Code)
	assert.Equal(t, "Пропуск сотрудника", resp.Name)
	assert.Equal(t, "idcard", resp.Category)
	assert.Equal(t, "/uploads/base.png", resp.BaseImage)
	assert.Len(t, resp.Rules, 2)
	assert.Equal(t, "Go", resp.Rules[1].FontFamily)

	mockStorage.AssertExpectations(t)
}

// Тест: отсутствует параметр 'code'
func TestGetTemplateByCode_MissingCode(t *testing.T) {
	mockStorage := new(MockTemplateJSON)
	handler := GetTemplateByCode(slog.Default(), mockStorage)

	req := httptest.NewRequest(http.MethodGet, "/api/template", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Missing required query parameter 'code'")

	mockStorage.AssertNotCalled(t, "GetTemplateByCode")
}

// Тест: шаблон не найден (404)
func TestGetTemplateByCode_NotFound(t *testing.T) {
	mockStorage := new(MockTemplateJSON)

	mockStorage.On("GetTemplateByCode", mock.Anything, "UNKNOWN").
		Return(nil, fmt.Errorf("storage.mysql.GetTemplateByCode: %w", storage.ErrTemplateNotFound))

	handler := GetTemplateByCode(slog.Default(), mockStorage)

	req := httptest.NewRequest(http.MethodGet, "/api/template?code=UNKNOWN", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Template not found")

	mockStorage.AssertExpectations(t)
}

// Тест: ошибка базы данных (500)
func TestGetTemplateByCode_DBError(t *testing.T) {
	mockStorage := new(MockTemplateJSON)

	mockStorage.On("GetTemplateByCode", mock.Anything, "ID-56").
		Return(nil, errors.New("connection timeout"))

	handler := GetTemplateByCode(slog.Default(), mockStorage)

	req := httptest.NewRequest(http.MethodGet, "/api/template?code=ID-56", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Internal server error")

	mockStorage.AssertExpectations(t)
}

// Тест: успешное получение всех шаблонов
func TestGetAllTemplates_Success(t *testing.T) {
	mockStorage := new(MockTemplateJSON)

	templates := []*storage.Template{
		{ID: 1, Code: "ID-01", Name: "Пропуск", Category: "idcard"},
		{ID: 2, Code: "LY-01", Name: "Лента", Category: "lanyard"},
	}

	mockStorage.On("GetAllTemplates", mock.Anything).
		Return(templates, nil)

	handler := GetAllTemplates(slog.Default(), mockStorage)

	req := httptest.NewRequest(http.MethodGet, "/api/templates", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp ResponseAllTemplates
	err := render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp)
	assert.NoError(t, err)

	assert.Len(t, resp.Template, 2)
	assert.Equal(t, "ID-01", resp.Template[0].Code)
	assert.Equal(t, "lanyard", resp.Template[1].Category)
	assert.Empty(t, resp.Error)

	mockStorage.AssertExpectations(t)
}

func TestGetAllTemplates_DBError(t *testing.T) {
	mockStorage := new(MockTemplateJSON)

	mockStorage.On("GetAllTemplates", mock.Anything).Return(nil, errors.New("connection timeout"))

	handler := GetAllTemplates(slog.Default(), mockStorage)

	req := httptest.NewRequest(http.MethodGet, "/api/templates", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Internal server error")

	mockStorage.AssertExpectations(t)
}

// Тест: админка видит неактивный шаблон
func TestGetTemplateByCodeAdmin_Inactive(t *testing.T) {
	mockStorage := new(MockTemplateJSON)

	mockStorage.On("GetTemplateByCodeAdmin", mock.Anything, "DRAFT").
		Return(&storage.Template{Code: "DRAFT", Category: "idcard", IsActive: false}, nil)

	handler := GetTemplateByCodeAdmin(slog.Default(), mockStorage)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/template?code=DRAFT", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp storage.Template
	assert.NoError(t, render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp))
	assert.Equal(t, "DRAFT", resp.Code)
	assert.False(t, resp.IsActive)

	mockStorage.AssertNotCalled(t, "GetTemplateByCode")
}

func TestGetAllTemplatesAdmin_DBError(t *testing.T) {
	mockStorage := new(MockTemplateJSON)

	mockStorage.On("GetAllTemplatesAdmin", mock.Anything).Return(nil, errors.New("boom"))

	handler := GetAllTemplatesAdmin(slog.Default(), mockStorage)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/templates", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	mockStorage.AssertExpectations(t)
}
