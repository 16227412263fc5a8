package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RomExtensions lists the file extensions ROMs are usually distributed with.
var RomExtensions = []string{".ch8", ".c8", ".sc8", ".xo8"}

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// resolves ../ and cleans the path
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// ReadROM reads a ROM image and returns it with its absolute path.
func ReadROM(relPath string) (data []byte, fullPath string, err error) {
	fullPath, _, err = GetPathInfo(relPath)
	if err != nil {
		return nil, "", err
	}
	data, err = os.ReadFile(fullPath)
	if err != nil {
		return nil, "", fmt.Errorf("read rom: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("read rom: %s is empty", fullPath)
	}
	return data, fullPath, nil
}

// RomTitle turns a ROM path into a window title: the base name without a
// known ROM extension.
func RomTitle(path string) string {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range RomExtensions {
		if ext == e {
			return strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	return base
}
