// Package directory resolves personnel identity records. The source of
// truth is a remote tabular feed; lookups are served from a periodically
// refreshed in-memory snapshot with a secondary repository as fallback when
// the feed is unreachable.
package directory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aksoyhq/dutyroster/internal/model"
)

// Feed column positions. One header row, one data row per person.
const (
	colSequence = iota
	colSicil
	colNationalID
	colFullName
	colRank
	colBirthDate
	colPhone
	feedColumns = 7
)

// Fetcher retrieves the raw directory feed. Implementations must return the
// complete feed; the service replaces its snapshot wholesale.
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.Personnel, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]model.Personnel, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context) ([]model.Personnel, error) {
	return f(ctx)
}

// HTTPFetcher pulls the CSV export of the directory sheet.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

// Fetch downloads and parses the feed. Transport and non-200 failures are
// reported as model.ErrServiceUnavailable so the caller can fall back.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]model.Personnel, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("directory: build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory: fetch feed: %w: %v", model.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory: feed returned %d: %w", resp.StatusCode, model.ErrServiceUnavailable)
	}
	return ParseFeed(resp.Body)
}

// ParseFeed decodes the comma-separated feed. The header row is skipped,
// rows with fewer than seven columns or an empty sicil are dropped, and the
// full name splits into given/family by treating the last whitespace token
// as the family name.
func ParseFeed(r io.Reader) ([]model.Personnel, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("directory: parse feed: %w", err)
	}
	var people []model.Personnel
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		if len(rec) < feedColumns {
			continue
		}
		sicil := strings.TrimSpace(rec[colSicil])
		if sicil == "" {
			continue
		}
		given, family := SplitFullName(rec[colFullName])
		people = append(people, model.Personnel{
			Sicil:      sicil,
			GivenName:  given,
			FamilyName: family,
			Rank:       strings.TrimSpace(rec[colRank]),
			NationalID: strings.TrimSpace(rec[colNationalID]),
			BirthDate:  strings.TrimSpace(rec[colBirthDate]),
			Phone:      strings.TrimSpace(rec[colPhone]),
		})
	}
	return people, nil
}

// SplitFullName separates a full name into given and family parts. The last
// whitespace-separated token is the family name, the remainder the given
// name; a single-token name becomes family name only.
func SplitFullName(full string) (given, family string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	family = parts[len(parts)-1]
	given = strings.Join(parts[:len(parts)-1], " ")
	return given, family
}
