package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultMaxBytes caps a downloaded dataset.
const DefaultMaxBytes = 256 << 20

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Stat describes a dataset location without reading it. Remote locations
// carry no mtime or size.
func Stat(location string) (Info, error) {
	if IsRemote(location) {
		return Info{Location: location, Remote: true}, nil
	}
	fi, err := os.Stat(location)
	if err != nil {
		return Info{}, err
	}
	if fi.IsDir() {
		return Info{}, fmt.Errorf("%s is a directory", location)
	}
	return Info{
		Location: location,
		MtimeNs:  fi.ModTime().UnixNano(),
		Size:     fi.Size(),
	}, nil
}

// Fetcher reads datasets from local paths or http(s) URLs.
type Fetcher struct {
	Client *http.Client
	// MaxBytes caps a remote body; zero means DefaultMaxBytes.
	MaxBytes int64
}

// DefaultFetcher uses a client with a generous timeout for large CSVs.
var DefaultFetcher = &Fetcher{Client: &http.Client{Timeout: 2 * time.Minute}}

// Fetch reads the whole dataset at location.
func (f *Fetcher) Fetch(ctx context.Context, location string) (*Fetched, error) {
	info, err := Stat(location)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", location, err)
	}

	var data []byte
	if info.Remote {
		data, err = f.get(ctx, location)
	} else {
		data, err = os.ReadFile(location) //nolint:gosec // user-chosen dataset path
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}

	return &Fetched{Info: info, Data: data, FetchedAt: time.Now()}, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}
