package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadStacks загружает каталог стеков технологий из YAML файла.
func LoadStacks(filename string) (*StackCatalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", filename, err)
	}

	var catalog StackCatalog
	err = yaml.Unmarshal(data, &catalog)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML: %w", err)
	}

	// Валидация каталога
	err = validateCatalog(&catalog)
	if err != nil {
		return nil, fmt.Errorf("ошибка валидации каталога стеков: %w", err)
	}

	return &catalog, nil
}

// validateCatalog проверяет корректность каталога стеков.
func validateCatalog(catalog *StackCatalog) error {
	if len(catalog.Stacks) == 0 {
		return fmt.Errorf("каталог должен содержать хотя бы один стек")
	}

	seen := make(map[string]bool)
	for i, stack := range catalog.Stacks {
		if stack.ID == "" {
			return fmt.Errorf("стек %d должен иметь id", i)
		}

		if stack.Title == "" {
			return fmt.Errorf("стек %q должен иметь title", stack.ID)
		}

		if seen[stack.ID] {
			return fmt.Errorf("дублирующийся id стека: %q", stack.ID)
		}
		seen[stack.ID] = true
	}

	return nil
}
