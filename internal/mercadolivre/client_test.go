package mercadolivre

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

func TestGetItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/MLB123456789", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"id": "MLB123456789",
			"title": "Fone de ouvido",
			"price": 299.9,
			"seller_id": 149015608,
			"catalog_product_id": "MLB777"
		}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "MLB", staticTokens("tok-1"))
	it, err := c.GetItem(context.Background(), "MLB123456789")
	require.NoError(t, err)
	assert.Equal(t, "Fone de ouvido", it.Title)
	require.NotNil(t, it.Price)
	assert.Equal(t, 299.9, *it.Price)
	require.NotNil(t, it.SellerID)
	assert.Equal(t, int64(149015608), *it.SellerID)
	assert.Equal(t, "MLB777", it.CatalogProductID)
}

func TestGetItemWithoutPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "MLB1", "title": "Sem preço"}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "MLB", staticTokens("tok"))
	it, err := c.GetItem(context.Background(), "MLB1")
	require.NoError(t, err)
	assert.Nil(t, it.Price)
	assert.Nil(t, it.SellerID)
	assert.Empty(t, it.CatalogProductID)
}

func TestGetItemNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "MLB", staticTokens("tok"))
	_, err := c.GetItem(context.Background(), "MLB404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestSearchByCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/MLB/search", r.URL.Path)
		assert.Equal(t, "MLB777", r.URL.Query().Get("catalog_product_id"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"results": [
			{"id": "MLB1", "price": 60.0, "seller": {"id": 1}},
			{"id": "MLB2", "price": null, "seller": {"id": 2}},
			{"id": "MLB3", "price": 55.0, "seller": {"id": 3}},
			{"id": "MLB4", "price": 55.0}
		]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "MLB", staticTokens("tok"))
	offers, err := c.SearchByCatalog(context.Background(), "MLB777", 50)
	require.NoError(t, err)

	// MLB2 não tem preço e é descartada; a ordem da API é preservada
	require.Len(t, offers, 3)
	assert.Equal(t, "MLB1", offers[0].ItemID)
	assert.Equal(t, "MLB3", offers[1].ItemID)
	assert.Equal(t, "MLB4", offers[2].ItemID)
	require.NotNil(t, offers[1].SellerID)
	assert.Equal(t, int64(3), *offers[1].SellerID)
	assert.Nil(t, offers[2].SellerID)
}

func TestSearchByCatalogNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "MLB", staticTokens("tok"))
	_, err := c.SearchByCatalog(context.Background(), "MLB777", 50)
	require.Error(t, err)
}
