package source

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"
)

func TestBOMReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{name: "file with BOM", input: append([]byte{0xEF, 0xBB, 0xBF}, "cid,cntry"...), expected: "cid,cntry"},
		{name: "file without BOM", input: []byte("cid,cntry"), expected: "cid,cntry"},
		{name: "empty file", input: []byte{}, expected: ""},
		{name: "only BOM", input: []byte{0xEF, 0xBB, 0xBF}, expected: ""},
		{name: "short file", input: []byte("a"), expected: "a"},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(newBOMReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{name: "valid ASCII", input: []byte("hello,world"), expected: "hello,world"},
		{name: "valid multibyte", input: []byte("Zürich,Österreich"), expected: "Zürich,Österreich"},
		{name: "invalid byte replaced", input: []byte{'h', 'e', 0x80, 'l', 'o'}, expected: "he?lo"},
		{name: "truncated sequence at EOF", input: []byte{'a', 0xC3}, expected: "a?"},
		{name: "empty input", input: []byte{}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(newUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer_SplitRune(t *testing.T) {
	input := "Müller,Genève"
	r := newUTF8Sanitizer(iotest.OneByteReader(bytes.NewReader([]byte(input))))

	result, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != input {
		t.Errorf("got %q, want %q", string(result), input)
	}
}

func TestWrapReader(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte{'h', 'e', 0x80, 'l', 'o'}...)

	reader := wrapReader(bytes.NewReader(input))
	result, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != "he?lo" {
		t.Errorf("got %q, want %q", string(result), "he?lo")
	}
	if reader.bytesRead != 5 {
		t.Errorf("bytesRead = %d, want 5", reader.bytesRead)
	}
}
