package mercadolivre

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultBaseURL = "https://api.mercadolibre.com"
	httpTimeout    = 20 * time.Second

	// Intervalo mínimo entre chamadas, para não estourar o rate limit da API
	defaultRequestInterval = time.Second
)

// Item é a resposta relevante de GET /items/{id}. Preço e seller podem
// faltar ou vir malformados; nesses casos os campos ficam nulos.
type Item struct {
	ID               string
	Title            string
	Price            *float64
	SellerID         *int64
	CatalogProductID string
}

// Offer é uma oferta concorrente retornada pela busca de catálogo
type Offer struct {
	ItemID   string
	Price    float64
	SellerID *int64
}

// Client acessa a API autenticada do Mercado Livre
type Client struct {
	baseURL  string
	siteID   string
	tokens   TokenProvider
	client   *http.Client
	throttle *throttle
}

// NewClient cria um cliente para o site informado (ex: MLB)
func NewClient(siteID string, tokens TokenProvider) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		siteID:  siteID,
		tokens:  tokens,
		client: &http.Client{
			Timeout: httpTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		throttle: &throttle{interval: defaultRequestInterval},
	}
}

// NewClientWithBaseURL cria um cliente apontando para outro endpoint (testes)
func NewClientWithBaseURL(baseURL, siteID string, tokens TokenProvider) *Client {
	c := NewClient(siteID, tokens)
	c.baseURL = baseURL
	c.throttle.interval = 0
	return c
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.throttle.wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

type itemResponse struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Price            *float64 `json:"price"`
	SellerID         *int64   `json:"seller_id"`
	CatalogProductID string   `json:"catalog_product_id"`
}

// GetItem busca os detalhes de um anúncio
func (c *Client) GetItem(ctx context.Context, itemID string) (*Item, error) {
	body, err := c.get(ctx, c.baseURL+"/items/"+url.PathEscape(itemID))
	if err != nil {
		return nil, fmt.Errorf("ML /items %s: %w", itemID, err)
	}

	var payload itemResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("ML /items %s: resposta inválida: %w", itemID, err)
	}

	return &Item{
		ID:               payload.ID,
		Title:            payload.Title,
		Price:            payload.Price,
		SellerID:         payload.SellerID,
		CatalogProductID: payload.CatalogProductID,
	}, nil
}

type searchResponse struct {
	Results []struct {
		ID     string   `json:"id"`
		Price  *float64 `json:"price"`
		Seller struct {
			ID *int64 `json:"id"`
		} `json:"seller"`
	} `json:"results"`
}

// SearchByCatalog lista as ofertas atreladas a um produto de catálogo, na
// ordem de relevância retornada pela API. Ofertas sem preço são descartadas.
func (c *Client) SearchByCatalog(ctx context.Context, catalogProductID string, limit int) ([]Offer, error) {
	q := url.Values{
		"catalog_product_id": {catalogProductID},
		"limit":              {strconv.Itoa(limit)},
	}
	body, err := c.get(ctx, c.baseURL+"/sites/"+url.PathEscape(c.siteID)+"/search?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("ML /search catalog %s: %w", catalogProductID, err)
	}

	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("ML /search catalog %s: resposta inválida: %w", catalogProductID, err)
	}

	offers := make([]Offer, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.Price == nil {
			continue
		}
		offers = append(offers, Offer{ItemID: r.ID, Price: *r.Price, SellerID: r.Seller.ID})
	}
	return offers, nil
}

// throttle impõe um intervalo mínimo entre chamadas à API, independente de
// qual goroutine está chamando (ciclo de verificação ou comandos do bot)
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

func (t *throttle) wait(ctx context.Context) error {
	if t.interval <= 0 {
		return nil
	}

	t.mu.Lock()
	now := time.Now()
	wait := t.next.Sub(now)
	if wait < 0 {
		wait = 0
		t.next = now
	}
	t.next = t.next.Add(t.interval)
	t.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
