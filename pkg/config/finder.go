package config

import (
	"os"
	"path/filepath"
)

// configNames — имена файлов конфигурации в порядке приоритета.
var configNames = []string{"config.yaml", "config.yml", "config.ini"}

// FindConfigPath находит путь к файлу конфигурации.
//
// Порядок поиска:
// 1. Флаг -config (если указан)
// 2. Текущая директория (config.yaml, config.yml, config.ini)
// 3. Директория бинарника
//
// Если ничего не найдено, возвращает "config.yaml" — Load вернёт понятную ошибку.
func FindConfigPath(flagValue string) string {
	// 1. Флаг имеет приоритет
	if flagValue != "" {
		return resolveAbsPath(flagValue)
	}

	// 2. Текущая директория
	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			return resolveAbsPath(name)
		}
	}

	// 3. Директория бинарника
	if execPath, err := os.Executable(); err == nil {
		binDir := filepath.Dir(execPath)
		for _, name := range configNames {
			cfgPath := filepath.Join(binDir, name)
			if _, err := os.Stat(cfgPath); err == nil {
				return cfgPath
			}
		}
	}

	return configNames[0]
}

func resolveAbsPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
