package scraper

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// MercadoLivreScraper extrai o preço da página pública de um anúncio
type MercadoLivreScraper struct {
	client *http.Client
}

// NewMercadoLivreScraper cria uma nova instância do scraper do Mercado Livre
func NewMercadoLivreScraper() *MercadoLivreScraper {
	return &MercadoLivreScraper{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// CanHandle verifica se o scraper pode lidar com a URL fornecida
func (m *MercadoLivreScraper) CanHandle(url string) bool {
	return strings.Contains(url, "mercadolivre.com.br")
}

// GetPrice extrai o preço atual de um anúncio do Mercado Livre
func (m *MercadoLivreScraper) GetPrice(url string) (float64, error) {
	doc, err := m.fetch(url)
	if err != nil {
		return 0, err
	}

	// Seletores em ordem de confiabilidade: preço em promoção primeiro,
	// depois o bloco de preço principal
	selectors := []string{
		".ui-pdp-price__second-line .andes-money-amount__fraction",
		"[data-testid='price'] .andes-money-amount__fraction",
		".ui-pdp-price__first-line .andes-money-amount__fraction",
		".andes-money-amount__fraction",
		".price-tag-fraction",
	}

	var priceText string
	for _, selector := range selectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			priceText = text
			break
		}
	}

	// Meta tag de preço como segunda opção
	if priceText == "" {
		priceText = doc.Find("meta[property='product:price:amount']").AttrOr("content", "")
	}

	// Último recurso: o JSON-LD embutido na página
	if priceText == "" {
		re := regexp.MustCompile(`"price"\s*:\s*"?([0-9.]+)"?`)
		doc.Find("script[type='application/ld+json']").EachWithBreak(func(i int, s *goquery.Selection) bool {
			if matches := re.FindStringSubmatch(s.Text()); len(matches) > 1 {
				priceText = matches[1]
				return false
			}
			return true
		})
	}

	if priceText == "" {
		return 0, fmt.Errorf("preço não encontrado na página")
	}

	return parsePrice(priceText)
}

func (m *MercadoLivreScraper) fetch(url string) (*goquery.Document, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code: %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

var (
	nonPriceChars = regexp.MustCompile(`[^0-9.]`)
	thousandsOnly = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
)

// parsePrice converte "1.299,90", "1.299" ou "1299.90" para float
func parsePrice(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if strings.Contains(text, ",") {
		// Formato pt-BR: ponto separa milhar, vírgula separa centavos
		text = strings.ReplaceAll(text, ".", "")
		text = strings.ReplaceAll(text, ",", ".")
	} else if thousandsOnly.MatchString(text) {
		// Fração sem centavos, ex: "1.299" exibido na página
		text = strings.ReplaceAll(text, ".", "")
	}
	text = nonPriceChars.ReplaceAllString(text, "")

	price, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("erro ao parsear preço '%s': %v", text, err)
	}
	return price, nil
}
