package policy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// readOnlyRedirectKey is appended to the product name to form the directive key.
const readOnlyRedirectKey = ".readonlyredirect"

// Key returns the lower-cased directive key for product.
func Key(product string) string {
	if product == "" {
		product = DefaultProduct
	}
	return strings.ToLower(product) + readOnlyRedirectKey
}

// Parse reads a line-oriented directive stream and returns the resulting
// Policy. Keys match case-insensitively; the value enables the restriction
// when it contains "true" in any case. A later directive overrides an
// earlier one. Lines starting with '#' and unrelated directives are skipped.
// Lines may be of any length.
func Parse(r io.Reader, product string) (Policy, error) {
	pol := Default()
	key := Key(product)

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			apply(&pol, key, line)
		}
		if errors.Is(err, io.EOF) {
			return pol, nil
		}
		if err != nil {
			return pol, fmt.Errorf("read directives: %w", err)
		}
	}
}

// apply folds one directive line into pol.
func apply(pol *Policy, key, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return
	}
	if strings.ToLower(fields[0]) != key {
		return
	}
	var value string
	if len(fields) > 1 {
		value = strings.ToLower(fields[1])
	}
	pol.ReadOnlyRedirectOnly = strings.Contains(value, "true")
}

// LoadFile parses the directive file at path. A missing or unreadable file is
// not an error: the default policy is returned with ok == false. A read
// failure part way through keeps whatever was parsed up to that point.
func LoadFile(path, product string) (pol Policy, ok bool) {
	if path == "" {
		return Default(), false
	}
	f, err := os.Open(path)
	if err != nil {
		return Default(), false
	}
	defer f.Close()

	pol, err = Parse(f, product)
	return pol, err == nil
}
