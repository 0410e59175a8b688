package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"card-editor/internal/storage"
)

var templateColumns = []string{"id", "code", "name", "category", "base_image", "style_mode", "rules", "is_active"}

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

func TestGetTemplateByCode(t *testing.T) {
	s, mock := newMockStorage(t)

	rules := `[{"id":"name","type":"text","label":"Name","x":0,"y":60,"width":100,"height":10,"fontFamily":"Go"},
		{"id":"role","type":"dropdown","x":0,"y":75,"width":100,"height":5,"options":["Guest","Staff"]}]`
	mock.ExpectQuery(`FROM design_templates WHERE code = \? AND is_active = TRUE`).
		WithArgs("ID-01").
		WillReturnRows(sqlmock.NewRows(templateColumns).
			AddRow(7, "ID-01", "Staff card", "idcard", "/uploads/base.png", "dynamic", rules, true))

	tpl, err := s.GetTemplateByCode(context.Background(), "ID-01")
	require.NoError(t, err)

	assert.Equal(t, 7, tpl.ID)
	assert.Equal(t, "idcard", tpl.Category)
	require.Len(t, tpl.Rules, 2)
	assert.Equal(t, "Go", tpl.Rules[0].FontFamily)
	assert.Equal(t, 60.0, tpl.Rules[0].Y)
	assert.Equal(t, []string{"Guest", "Staff"}, tpl.Rules[1].Options)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTemplateByCode_NotFound(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery(`FROM design_templates`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(templateColumns))

	_, err := s.GetTemplateByCode(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrTemplateNotFound)
}

func TestGetTemplateByCode_BrokenRules(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery(`FROM design_templates`).
		WithArgs("ID-01").
		WillReturnRows(sqlmock.NewRows(templateColumns).
			AddRow(1, "ID-01", "x", "idcard", "/b.png", "static", "{broken", true))

	_, err := s.GetTemplateByCode(context.Background(), "ID-01")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrTemplateNotFound)
}

func TestGetTemplateByCodeAdmin_NullRules(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery(`FROM design_templates WHERE code = \?`).
		WithArgs("ID-02").
		WillReturnRows(sqlmock.NewRows(templateColumns).
			AddRow(2, "ID-02", "Draft", "lanyard", "/b.png", "static", nil, false))

	tpl, err := s.GetTemplateByCodeAdmin(context.Background(), "ID-02")
	require.NoError(t, err)
	assert.False(t, tpl.IsActive)
	assert.NotNil(t, tpl.Rules)
	assert.Empty(t, tpl.Rules)
}

func TestGetAllTemplates(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery(`FROM design_templates WHERE is_active = TRUE ORDER BY code`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "category", "base_image", "style_mode", "is_active"}).
			AddRow(1, "ID-01", "Card", "idcard", "/a.png", "dynamic", true).
			AddRow(2, "LY-01", "Lanyard", "lanyard", "/b.png", "static", true))

	list, err := s.GetAllTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "LY-01", list[1].Code)
	assert.Nil(t, list[1].Rules)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllTemplatesAdmin_QueryError(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery(`FROM design_templates ORDER BY code`).WillReturnError(errors.New("connection lost"))

	_, err := s.GetAllTemplatesAdmin(context.Background())
	assert.ErrorContains(t, err, "connection lost")
}

func TestCreateTemplateAdmin(t *testing.T) {
	s, mock := newMockStorage(t)

	in := storage.TemplateAdmin{Code: "ID-03", Name: "New", Category: "idcard", BaseImage: "/c.png",
		StyleMode: "dynamic", IsActive: true, Rules: "[]"}

	mock.ExpectExec(`INSERT INTO design_templates`).
		WithArgs("ID-03", "New", "idcard", "/c.png", "dynamic", true, "[]").
		WillReturnResult(sqlmock.NewResult(3, 1))

	require.NoError(t, s.CreateTemplateAdmin(context.Background(), in))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTemplateAdmin_Duplicate(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectExec(`INSERT INTO design_templates`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ID-01' for key 'code'"})

	err := s.CreateTemplateAdmin(context.Background(), storage.TemplateAdmin{Code: "ID-01"})
	assert.ErrorIs(t, err, storage.ErrTemplateExists)
}

func TestUpdateTemplateAdmin(t *testing.T) {
	s, mock := newMockStorage(t)

	up := storage.TemplateAdmin{Name: "Renamed", Category: "idcard", BaseImage: "/a.png", StyleMode: "static", Rules: "[]"}
	args := []driver.Value{"Renamed", "idcard", "/a.png", "static", false, "[]", "ID-01"}

	mock.ExpectExec(`UPDATE design_templates SET`).WithArgs(args...).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.UpdateTemplateAdmin(context.Background(), "ID-01", up))

	mock.ExpectExec(`UPDATE design_templates SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	err := s.UpdateTemplateAdmin(context.Background(), "nope", up)
	assert.ErrorIs(t, err, storage.ErrTemplateNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
