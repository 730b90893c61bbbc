package twin

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(Seed()).Router())
	t.Cleanup(srv.Close)
	return srv
}

func obtainToken(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequest("POST", srv.URL+"/oauth2/token", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(DefaultClientID, DefaultClientSecret)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &decoded), "body: %s", data)
	}
	return resp, decoded
}

func validProductBody() map[string]any {
	return map[string]any{
		"name":        "Meu novo produto",
		"description": "Lorem ipsum, dolor sit amet consectetur adipisicing elit",
		"imgUrl":      "https://img.example.com/1-big.jpg",
		"price":       100.0,
		"categories":  []map[string]any{{"id": 2}, {"id": 3}},
	}
}

func TestTokenEndpoint_RejectsBadClientAndBadGrant(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest("POST", srv.URL+"/oauth2/token",
		strings.NewReader("grant_type=password&username=alex@gmail.com&password=123456"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("wrong", "client")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ = http.NewRequest("POST", srv.URL+"/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(DefaultClientID, DefaultClientSecret)
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetProduct_PublicRead(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, "GET", "/products/2", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Smart TV", body["name"])
	assert.Equal(t, 2190.0, body["price"])

	cats := body["categories"].([]any)
	require.Len(t, cats, 2)
	assert.Equal(t, "Eletrônicos", cats[0].(map[string]any)["name"])

	resp, _ = do(t, srv, "GET", "/products/100", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetProduct_CorruptTokenRejectedEvenOnPublicRoute(t *testing.T) {
	srv := newTestServer(t)
	token := obtainToken(t, srv, "alex@gmail.com", "123456")

	resp, _ := do(t, srv, "GET", "/products/2", token+"xpto", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListProducts_PaginationAndFilter(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, "GET", "/products?page=0", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 7.0, body["totalElements"])

	resp, body = do(t, srv, "GET", "/products?name=Macbook", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	content := body["content"].([]any)
	require.Len(t, content, 1)
	first := content[0].(map[string]any)
	assert.Equal(t, 3.0, first["id"])
	assert.Equal(t, "Macbook Pro", first["name"])
	assert.Equal(t, 1250.0, first["price"])

	// Listing order is by name ascending.
	resp, body = do(t, srv, "GET", "/products?size=25", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	content = body["content"].([]any)
	require.Len(t, content, 7)
	assert.Equal(t, "Macbook Pro", content[0].(map[string]any)["name"])
}

func TestInsertProduct_AdminValid(t *testing.T) {
	srv := newTestServer(t)
	admin := obtainToken(t, srv, "alex@gmail.com", "123456")

	resp, body := do(t, srv, "POST", "/products", admin, validProductBody())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Meu novo produto", body["name"])
	assert.Equal(t, 100.0, body["price"])
	assert.Equal(t, 8.0, body["id"], "ids continue after the seed")

	cats := body["categories"].([]any)
	require.Len(t, cats, 2)
	assert.Equal(t, 2.0, cats[0].(map[string]any)["id"])
}

func TestInsertProduct_ValidationMatrix(t *testing.T) {
	srv := newTestServer(t)
	admin := obtainToken(t, srv, "alex@gmail.com", "123456")

	cases := []struct {
		name    string
		mutate  func(m map[string]any)
		field   string
		message string
	}{
		{"blank name", func(m map[string]any) { m["name"] = "     " }, "name", "Campo requerido"},
		{"short description", func(m map[string]any) { m["description"] = "Lorem" }, "description", "Descrição precisa ter no mínimo 10 caracteres"},
		{"negative price", func(m map[string]any) { m["price"] = -100.0 }, "price", "O preço deve ser positivo"},
		{"zero price", func(m map[string]any) { m["price"] = 0.0 }, "price", "O preço deve ser positivo"},
		{"null categories", func(m map[string]any) { m["categories"] = nil }, "categories", "Deve haver pelo menos uma categoria"},
		{"absent categories", func(m map[string]any) { delete(m, "categories") }, "categories", "Deve haver pelo menos uma categoria"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := validProductBody()
			tc.mutate(payload)

			resp, body := do(t, srv, "POST", "/products", admin, payload)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

			errs := body["errors"].([]any)
			require.NotEmpty(t, errs)
			first := errs[0].(map[string]any)
			assert.Equal(t, tc.field, first["fieldName"])
			assert.Equal(t, tc.message, first["message"])
		})
	}
}

func TestInsertProduct_MultipleViolationsInDeclarationOrder(t *testing.T) {
	srv := newTestServer(t)
	admin := obtainToken(t, srv, "alex@gmail.com", "123456")

	payload := map[string]any{"name": " ", "description": "short", "price": 0, "categories": nil}
	resp, body := do(t, srv, "POST", "/products", admin, payload)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	errs := body["errors"].([]any)
	require.Len(t, errs, 4)
	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.(map[string]any)["fieldName"].(string)
	}
	assert.Equal(t, []string{"name", "description", "price", "categories"}, fields)
}

func TestInsertProduct_AccessControl(t *testing.T) {
	srv := newTestServer(t)
	client := obtainToken(t, srv, "maria@gmail.com", "123456")
	admin := obtainToken(t, srv, "alex@gmail.com", "123456")

	resp, _ := do(t, srv, "POST", "/products", client, validProductBody())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = do(t, srv, "POST", "/products", admin+"xpto", validProductBody())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, srv, "POST", "/products", "", validProductBody())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeleteProduct_Matrix(t *testing.T) {
	srv := newTestServer(t)
	client := obtainToken(t, srv, "maria@gmail.com", "123456")
	admin := obtainToken(t, srv, "alex@gmail.com", "123456")

	// Independent product deletes cleanly.
	resp, _ := do(t, srv, "DELETE", "/products/4", admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, srv, "GET", "/products/4", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Missing product.
	resp, _ = do(t, srv, "DELETE", "/products/100", admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Referentially dependent product is blocked and remains retrievable.
	resp, _ = do(t, srv, "DELETE", "/products/3", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, body := do(t, srv, "GET", "/products/3", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Macbook Pro", body["name"])

	// Role checks.
	resp, _ = do(t, srv, "DELETE", "/products/2", client, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = do(t, srv, "DELETE", "/products/2", admin+"xpto", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetOrder_FullPayload(t *testing.T) {
	srv := newTestServer(t)
	client := obtainToken(t, srv, "maria@gmail.com", "123456")

	resp, body := do(t, srv, "GET", "/orders/1", client, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, body["id"])
	assert.Equal(t, "2022-07-25T13:00:00Z", body["moment"])
	assert.Equal(t, "PAID", body["status"])
	assert.Equal(t, "Maria Brown", body["client"].(map[string]any)["name"])
	assert.Equal(t, "2022-07-25T15:00:00Z", body["payment"].(map[string]any)["moment"])
	assert.Equal(t, 1431.0, body["total"])

	items := body["items"].([]any)
	require.Len(t, items, 2)
	names := []string{
		items[0].(map[string]any)["name"].(string),
		items[1].(map[string]any)["name"].(string),
	}
	assert.Contains(t, names, "The Lord of the Rings")
	assert.Contains(t, names, "Macbook Pro")
}

func TestGetOrder_AccessControl(t *testing.T) {
	srv := newTestServer(t)
	client := obtainToken(t, srv, "maria@gmail.com", "123456")
	admin := obtainToken(t, srv, "alex@gmail.com", "123456")

	// Another client's order.
	resp, _ := do(t, srv, "GET", "/orders/2", client, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin reads any order.
	resp, _ = do(t, srv, "GET", "/orders/2", admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Missing order is 404 for both roles.
	resp, _ = do(t, srv, "GET", "/orders/100", client, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, srv, "GET", "/orders/100", admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// No identity at all.
	resp, _ = do(t, srv, "GET", "/orders/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = do(t, srv, "GET", "/orders/1", admin+"xpto", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
