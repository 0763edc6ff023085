// Package proxylist reads proxy addresses in and writes the working ones out.
package proxylist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"proxycheck/internal/domain"
	"proxycheck/internal/support"
)

const maxLineLength = 1024 * 1024

// Source yields the ordered proxy addresses of a run.
type Source interface {
	Load(ctx context.Context) ([]domain.ProxyAddress, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(ctx context.Context) ([]domain.ProxyAddress, error)

func (fn SourceFunc) Load(ctx context.Context) ([]domain.ProxyAddress, error) {
	return fn(ctx)
}

// FileSource reads one proxy per line from a text file.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (source *FileSource) Load(_ context.Context) ([]domain.ProxyAddress, error) {
	file, err := os.Open(source.Path)
	if err != nil {
		return nil, fmt.Errorf("proxylist: open %s: %w", source.Path, err)
	}
	defer file.Close()

	addresses, err := ParseLines(file)
	if err != nil {
		return nil, fmt.Errorf("proxylist: read %s: %w", source.Path, err)
	}
	return addresses, nil
}

// ParseLines returns every non-blank trimmed line as an address, keeping
// input order and duplicates.
func ParseLines(reader io.Reader) ([]domain.ProxyAddress, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)

	var addresses []domain.ProxyAddress
	for scanner.Scan() {
		if address := support.NormalizeProxyLine(scanner.Text()); address != "" {
			addresses = append(addresses, domain.ProxyAddress(address))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return addresses, nil
}
