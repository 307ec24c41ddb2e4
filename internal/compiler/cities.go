package compiler

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ParseCities reads one city per line. Lines are trimmed and NFC normalized;
// blank lines are skipped. Duplicates are kept, which weights the uniform draw.
// An input without any city is an error.
func ParseCities(r io.Reader) ([]string, error) {
	var cities []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		cities = append(cities, norm.NFC.String(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read cities: %w", err)
	}
	if len(cities) == 0 {
		return nil, &CompileError{Field: "cities", Message: "city list is empty"}
	}
	return cities, nil
}

// LoadCities reads a city file.
func LoadCities(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open city file: %w", err)
	}
	defer f.Close()
	return ParseCities(f)
}
