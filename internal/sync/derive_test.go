package sync

import "testing"

func TestDerivePlacement(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		category string
		brand    string
		title    string
	}{
		{
			name:     "full depth",
			path:     "Powersports/Kawasaki/manual.pdf",
			category: "Powersports",
			brand:    "Kawasaki",
			title:    "manual",
		},
		{
			name:     "deeper nesting keeps first two segments",
			path:     "Marine/Honda/2024/outboard.pdf",
			category: "Marine",
			brand:    "Honda",
			title:    "outboard",
		},
		{
			name:     "no brand folder",
			path:     "Powersports/manual.pdf",
			category: "Powersports",
			brand:    "Unknown",
			title:    "manual",
		},
		{
			name:     "root level file",
			path:     "readme.txt",
			category: "Unknown",
			brand:    "Unknown",
			title:    "readme",
		},
		{
			name:     "no extension",
			path:     "Powersports/Kawasaki/LICENSE",
			category: "Powersports",
			brand:    "Kawasaki",
			title:    "LICENSE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, brand, title := derivePlacement(tt.path)
			if category != tt.category || brand != tt.brand || title != tt.title {
				t.Errorf("derivePlacement(%q) = (%q, %q, %q); want (%q, %q, %q)",
					tt.path, category, brand, title, tt.category, tt.brand, tt.title)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	tests := []struct {
		name     string
		reported string
		fileName string
		expected string
	}{
		{
			name:     "provider report wins",
			reported: "application/pdf",
			fileName: "manual.bin",
			expected: "application/pdf",
		},
		{
			name:     "extension fallback",
			reported: "",
			fileName: "manual.pdf",
			expected: "application/pdf",
		},
		{
			name:     "generic binary fallback",
			reported: "",
			fileName: "firmware.xyzunknown",
			expected: "application/octet-stream",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := contentType(tt.reported, tt.fileName)
			if result != tt.expected {
				t.Errorf("contentType(%q, %q) = %q; want %q", tt.reported, tt.fileName, result, tt.expected)
			}
		})
	}
}
