package catalog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// LoadStatusRegistry reads and validates the status provider registry.
func LoadStatusRegistry(path string) (*StatusRegistry, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	r, err := ParseStatusRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("status registry %s: %w: %w", path, ErrUnavailable, err)
	}
	return r, nil
}

// ParseStatusRegistry decodes the registry, defaulting probe methods to GET.
func ParseStatusRegistry(data []byte) (*StatusRegistry, error) {
	r := &StatusRegistry{Providers: orderedmap.New[string, StatusProvider]()}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if r.Providers == nil {
		r.Providers = orderedmap.New[string, StatusProvider]()
	}
	for pair := r.Providers.Oldest(); pair != nil; pair = pair.Next() {
		sp := pair.Value
		if sp.Name == "" {
			return nil, fmt.Errorf("provider %s: missing name", pair.Key)
		}
		u, err := url.Parse(sp.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("provider %s: invalid endpoint %q", pair.Key, sp.Endpoint)
		}
		sp.Method = strings.ToUpper(sp.Method)
		switch sp.Method {
		case "":
			sp.Method = http.MethodGet
		case http.MethodGet, http.MethodPost:
		default:
			return nil, fmt.Errorf("provider %s: unsupported method %s", pair.Key, sp.Method)
		}
		pair.Value = sp
	}
	return r, nil
}
