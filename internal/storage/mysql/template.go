package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"card-editor/internal/storage"
)

const (
	mysqlErrDuplicateEntry = 1062
)

func (s *Storage) GetTemplateByCode(ctx context.Context, code string) (*storage.Template, error) {
	const op = "storage.mysql.GetTemplateByCode"

	query := `
		SELECT id, code, name, category, base_image, style_mode, rules, is_active
		FROM design_templates
		WHERE code = ? AND is_active = TRUE
	`

	template, err := scanTemplate(s.db.QueryRowContext(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("%s: code=%q: %w", op, code, err)
	}

	return template, nil
}

func (s *Storage) GetAllTemplates(ctx context.Context) ([]*storage.Template, error) {
	const op = "storage.mysql.GetAllTemplates"

	stmt := "SELECT id, code, name, category, base_image, style_mode, is_active FROM design_templates WHERE is_active = TRUE ORDER BY code"

	templates, err := s.listTemplates(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return templates, nil
}

func (s *Storage) GetTemplateByCodeAdmin(ctx context.Context, code string) (*storage.Template, error) {
	const op = "storage.mysql.GetTemplateByCodeAdmin"

	query := `
		SELECT id, code, name, category, base_image, style_mode, rules, is_active
		FROM design_templates
		WHERE code = ?
	`

	template, err := scanTemplate(s.db.QueryRowContext(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("%s: code=%q: %w", op, code, err)
	}

	return template, nil
}

func (s *Storage) GetAllTemplatesAdmin(ctx context.Context) ([]*storage.Template, error) {
	const op = "storage.mysql.GetAllTemplatesAdmin"

	stmt := "SELECT id, code, name, category, base_image, style_mode, is_active FROM design_templates ORDER BY code"

	templates, err := s.listTemplates(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return templates, nil
}

func (s *Storage) UpdateTemplateAdmin(ctx context.Context, code string, update storage.TemplateAdmin) error {
	const op = "storage.mysql.UpdateTemplateAdmin"

	stmt := `UPDATE design_templates SET name=?, category=?, base_image=?, style_mode=?, is_active=?, rules=? WHERE code=?`

	res, err := s.db.ExecContext(ctx, stmt, update.Name, update.Category, update.BaseImage,
		update.StyleMode, update.IsActive, update.Rules, code)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления шаблона: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: code=%q: %w", op, code, storage.ErrTemplateNotFound)
	}

	return nil
}

func (s *Storage) CreateTemplateAdmin(ctx context.Context, res storage.TemplateAdmin) error {
	const op = "storage.mysql.CreateTemplateAdmin"

	stmt := `INSERT INTO design_templates (code, name, category, base_image, style_mode, is_active, rules)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt, res.Code, res.Name, res.Category, res.BaseImage,
		res.StyleMode, res.IsActive, res.Rules)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return fmt.Errorf("%s: code=%q: %w", op, res.Code, storage.ErrTemplateExists)
		}
		return fmt.Errorf("%s: ошибка сохранения шаблона в базу: %w", op, err)
	}

	return nil
}

func (s *Storage) listTemplates(ctx context.Context, stmt string) ([]*storage.Template, error) {
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []*storage.Template{}

	for rows.Next() {
		template := &storage.Template{}

		err := rows.Scan(&template.ID, &template.Code, &template.Name, &template.Category,
			&template.BaseImage, &template.StyleMode, &template.IsActive)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}

		templates = append(templates, template)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по строкам: %w", err)
	}

	return templates, nil
}

func scanTemplate(row *sql.Row) (*storage.Template, error) {
	template := &storage.Template{}

	// правила лежат JSON-колонкой
	var rulesJSON sql.NullString
	err := row.Scan(
		&template.ID,
		&template.Code,
		&template.Name,
		&template.Category,
		&template.BaseImage,
		&template.StyleMode,
		&rulesJSON,
		&template.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("выполнение запроса завершилось ошибкой: %w", err)
	}

	template.Rules = []storage.Rule{}
	if rulesJSON.Valid && rulesJSON.String != "" {
		if err := json.Unmarshal([]byte(rulesJSON.String), &template.Rules); err != nil {
			return nil, fmt.Errorf("ошибка парсинга JSON правил: %w", err)
		}
	}

	return template, nil
}
