package scraper

import "fmt"

// Scraper extrai o preço de uma página pública de anúncio. Usado como
// fallback quando a API autenticada não responde no modo listing.
type Scraper interface {
	CanHandle(url string) bool
	GetPrice(url string) (float64, error)
}

// Registry mantém um registro de todos os scrapers disponíveis
type Registry struct {
	scrapers []Scraper
}

// NewRegistry cria um novo registro de scrapers
func NewRegistry() *Registry {
	return &Registry{
		scrapers: []Scraper{
			NewMercadoLivreScraper(),
		},
	}
}

// GetPrice delega para o scraper que sabe lidar com a URL
func (r *Registry) GetPrice(url string) (float64, error) {
	for _, s := range r.scrapers {
		if s.CanHandle(url) {
			return s.GetPrice(url)
		}
	}
	return 0, fmt.Errorf("nenhum scraper disponível para a URL: %s", url)
}
