package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{[a-zA-Z0-9_]+\}`)

// Input carries the per-call parameters for an operation.
type Input struct {
	// Params substitute path placeholders positionally.
	Params []any

	// Query is appended to the URL, e.g. page, size, name.
	Query map[string]string

	// Body is JSON-marshaled when the operation has a body. A map body
	// preserves the null-vs-absent distinction: a key with a nil value is
	// serialized as null, a missing key is omitted entirely. Validation
	// contracts distinguish the two (categories: null vs no categories
	// field), so the builder must never normalize one into the other.
	Body any

	// BearerToken is attached as an Authorization header. Empty means the
	// request is anonymous and carries no Authorization header at all.
	BearerToken string
}

// Builder constructs requests against a fixed base URL.
type Builder struct {
	baseURL string
}

// NewBuilder creates a Builder. Trailing slashes on baseURL are ignored.
func NewBuilder(baseURL string) *Builder {
	return &Builder{baseURL: strings.TrimRight(baseURL, "/")}
}

// Build produces a fully-formed *http.Request for op with in's parameters.
func (b *Builder) Build(ctx context.Context, op Operation, in Input) (*http.Request, error) {
	path, err := expandPath(op.Path, in.Params)
	if err != nil {
		return nil, fmt.Errorf("operation %s: %w", op.Name, err)
	}

	u := b.baseURL + path
	if len(in.Query) > 0 {
		q := url.Values{}
		for k, v := range in.Query {
			q.Set(k, v)
		}
		u += "?" + q.Encode()
	}

	var body *bytes.Reader
	if op.HasBody && in.Body != nil {
		data, err := json.Marshal(in.Body)
		if err != nil {
			return nil, fmt.Errorf("operation %s: marshal body: %w", op.Name, err)
		}
		body = bytes.NewReader(data)
	}

	var req *http.Request
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, op.Method, u, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, op.Method, u, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("operation %s: %w", op.Name, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if in.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+in.BearerToken)
	}

	return req, nil
}

// expandPath substitutes placeholders positionally. The count of params
// must match the count of placeholders exactly.
func expandPath(template string, params []any) (string, error) {
	slots := placeholder.FindAllString(template, -1)
	if len(slots) != len(params) {
		return "", fmt.Errorf("path %q has %d placeholder(s), got %d param(s)",
			template, len(slots), len(params))
	}

	i := 0
	out := placeholder.ReplaceAllStringFunc(template, func(string) string {
		v := url.PathEscape(fmt.Sprintf("%v", params[i]))
		i++
		return v
	})
	return out, nil
}

// ProductBody assembles a product-create payload. categoryIDs maps to the
// wire shape categories:[{id},...]. Use a raw map Input.Body instead when a
// scenario needs null or absent fields.
func ProductBody(name, description, imgURL string, price float64, categoryIDs []int64) map[string]any {
	cats := make([]map[string]any, len(categoryIDs))
	for i, id := range categoryIDs {
		cats[i] = map[string]any{"id": id}
	}
	return map[string]any{
		"name":        name,
		"description": description,
		"imgUrl":      imgURL,
		"price":       price,
		"categories":  cats,
	}
}
