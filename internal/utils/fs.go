package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxFilenameLength is the maximum length for a filename
const MaxFilenameLength = 200

// Windows reserved names
var windowsReserved = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// invalidCharsRegex matches invalid filename characters
var invalidCharsRegex = regexp.MustCompile(`[<>:"|?*\\/]`)

// multipleSpacesRegex matches multiple consecutive spaces/dashes
var multipleSpacesRegex = regexp.MustCompile(`[-_\s]+`)

// SanitizeFilename sanitizes a string for use as a filename
func SanitizeFilename(name string) string {
	// Remove invalid characters
	name = invalidCharsRegex.ReplaceAllString(name, "-")

	// Replace multiple spaces/dashes with single dash
	name = multipleSpacesRegex.ReplaceAllString(name, "-")

	// Trim leading/trailing dashes and spaces
	name = strings.Trim(name, "- ")

	// Check for Windows reserved names
	upper := strings.ToUpper(name)
	baseName := strings.TrimSuffix(upper, filepath.Ext(upper))
	if windowsReserved[baseName] {
		name = "_" + name
	}

	// Limit length
	if len(name) > MaxFilenameLength {
		ext := filepath.Ext(name)
		name = name[:MaxFilenameLength-len(ext)] + ext
	}

	// Ensure the name is not empty
	if name == "" {
		name = "untitled"
	}

	return name
}

// EnsureDir ensures the parent directory of path exists, creating it
// if necessary
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}
