package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ashureev/portfolio/internal/domain"
	"github.com/go-resty/resty/v2"
)

// FirestoreConfig locates the portfolio document in Firestore.
type FirestoreConfig struct {
	BaseURL    string
	ProjectID  string
	APIKey     string
	Collection string
	Document   string
	// Timeout bounds one request. Zero leaves the transport default in place.
	Timeout time.Duration
}

// FirestoreSource reads the portfolio document through the Firestore REST API.
type FirestoreSource struct {
	client *resty.Client
	path   string
	apiKey string
}

// NewFirestoreSource creates a source for the document named by cfg.
func NewFirestoreSource(cfg FirestoreConfig) *FirestoreSource {
	base := cfg.BaseURL
	if base == "" {
		base = "https://firestore.googleapis.com"
	}

	c := resty.New().
		SetBaseURL(base).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}

	path := fmt.Sprintf("/v1/projects/%s/databases/(default)/documents/%s/%s",
		url.PathEscape(cfg.ProjectID), url.PathEscape(cfg.Collection), url.PathEscape(cfg.Document))

	return &FirestoreSource{client: c, path: path, apiKey: cfg.APIKey}
}

type firestoreDocument struct {
	Name   string                    `json:"name"`
	Fields map[string]firestoreValue `json:"fields"`
}

// firestoreValue is the typed value union used by the REST API.
// Exactly one field is set.
type firestoreValue struct {
	StringValue    *string         `json:"stringValue,omitempty"`
	IntegerValue   *string         `json:"integerValue,omitempty"`
	DoubleValue    *float64        `json:"doubleValue,omitempty"`
	BooleanValue   *bool           `json:"booleanValue,omitempty"`
	NullValue      *string         `json:"nullValue,omitempty"`
	TimestampValue *string         `json:"timestampValue,omitempty"`
	ReferenceValue *string         `json:"referenceValue,omitempty"`
	MapValue       *firestoreMap   `json:"mapValue,omitempty"`
	ArrayValue     *firestoreArray `json:"arrayValue,omitempty"`
}

type firestoreMap struct {
	Fields map[string]firestoreValue `json:"fields"`
}

type firestoreArray struct {
	Values []firestoreValue `json:"values"`
}

// Fetch downloads and decodes the document.
func (s *FirestoreSource) Fetch(ctx context.Context) (*domain.ContentSnapshot, error) {
	req := s.client.R().SetContext(ctx)
	if s.apiKey != "" {
		req.SetQueryParam("key", s.apiKey)
	}

	resp, err := req.Get(s.path)
	if err != nil {
		return nil, fmt.Errorf("firestore request: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("firestore status %d: %s", resp.StatusCode(), resp.String())
	}

	var doc firestoreDocument
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("decode firestore document: %w", err)
	}
	if len(doc.Fields) == 0 {
		return nil, ErrNotFound
	}

	plain, err := decodeFields(doc.Fields)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(plain)
	if err != nil {
		return nil, fmt.Errorf("re-encode firestore document: %w", err)
	}

	var snap domain.ContentSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode portfolio document: %w", err)
	}
	return &snap, nil
}

func decodeFields(fields map[string]firestoreValue) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		dv, err := decodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = dv
	}
	return out, nil
}

func decodeValue(v firestoreValue) (any, error) {
	switch {
	case v.StringValue != nil:
		return *v.StringValue, nil
	case v.IntegerValue != nil:
		n, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse integer value: %w", err)
		}
		return n, nil
	case v.DoubleValue != nil:
		return *v.DoubleValue, nil
	case v.BooleanValue != nil:
		return *v.BooleanValue, nil
	case v.TimestampValue != nil:
		return *v.TimestampValue, nil
	case v.ReferenceValue != nil:
		return *v.ReferenceValue, nil
	case v.MapValue != nil:
		return decodeFields(v.MapValue.Fields)
	case v.ArrayValue != nil:
		items := make([]any, 0, len(v.ArrayValue.Values))
		for i, item := range v.ArrayValue.Values {
			dv, err := decodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, dv)
		}
		return items, nil
	default:
		return nil, nil
	}
}
