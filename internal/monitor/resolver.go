package monitor

import (
	"context"
	"fmt"
	"log"

	"ml-tracker/internal/mercadolivre"
	"ml-tracker/internal/models"
)

// Limite de ofertas consultadas na busca de catálogo
const searchLimit = 50

// Marketplace é a visão do monitor sobre a API do Mercado Livre
type Marketplace interface {
	GetItem(ctx context.Context, itemID string) (*mercadolivre.Item, error)
	SearchByCatalog(ctx context.Context, catalogProductID string, limit int) ([]mercadolivre.Offer, error)
}

// PriceFallback extrai o preço da página pública quando a API não responde
// no modo listing. Opcional.
type PriceFallback interface {
	GetPrice(url string) (float64, error)
}

// Competitor é a oferta concorrente escolhida em um ciclo
type Competitor struct {
	ItemID   string
	SellerID *int64
	Price    float64
}

// Resolution é o resultado da resolução de concorrente de um item.
// Competitor nulo significa observação neutra: os metadados são atualizados
// mas não há preço para avaliar neste ciclo.
type Resolution struct {
	Title            string
	MySellerID       *int64
	CatalogProductID string
	Competitor       *Competitor
}

// Resolver determina o preço concorrente relevante de cada item conforme o
// modo configurado
type Resolver struct {
	api      Marketplace
	fallback PriceFallback
}

// NewResolver cria um resolver. fallback pode ser nulo.
func NewResolver(api Marketplace, fallback PriceFallback) *Resolver {
	return &Resolver{api: api, fallback: fallback}
}

// Resolve produz a observação concorrente de um item. Um erro significa
// "sem observação": o item é pulado neste ciclo sem mudança de estado.
func (r *Resolver) Resolve(ctx context.Context, item *models.TrackedItem) (*Resolution, error) {
	switch item.Mode {
	case models.ModeListing:
		return r.resolveListing(ctx, item)
	case models.ModeCatalog:
		return r.resolveCatalog(ctx, item)
	}
	return nil, fmt.Errorf("item %s com modo desconhecido: %q", item.ItemID, item.Mode)
}

// resolveListing lê o preço do próprio anúncio monitorado: no modo listing o
// anúncio rastreado é o do concorrente, e o preço dele é o preço concorrente
func (r *Resolver) resolveListing(ctx context.Context, item *models.TrackedItem) (*Resolution, error) {
	it, err := r.api.GetItem(ctx, item.ItemID)
	if err != nil || it.Price == nil {
		if price, ok := r.fallbackPrice(item.ItemID); ok {
			log.Printf("Item %s: API indisponível, usando preço da página pública", item.ItemID)
			return &Resolution{
				Title: item.Title,
				Competitor: &Competitor{
					ItemID: item.ItemID,
					Price:  price,
				},
			}, nil
		}
		if err == nil {
			err = fmt.Errorf("item %s sem preço na resposta da API", item.ItemID)
		}
		return nil, err
	}

	return &Resolution{
		Title:            it.Title,
		MySellerID:       it.SellerID,
		CatalogProductID: it.CatalogProductID,
		Competitor: &Competitor{
			ItemID:   item.ItemID,
			SellerID: it.SellerID,
			Price:    *it.Price,
		},
	}, nil
}

// resolveCatalog busca a oferta mais barata de terceiros no catálogo do item
func (r *Resolver) resolveCatalog(ctx context.Context, item *models.TrackedItem) (*Resolution, error) {
	res := &Resolution{
		Title:            item.Title,
		MySellerID:       item.MySellerID,
		CatalogProductID: item.CatalogProductID,
	}

	// O detalhe do próprio item renova título, seller e catalog id; uma
	// falha aqui não impede a busca se o catalog id já é conhecido
	if it, err := r.api.GetItem(ctx, item.ItemID); err != nil {
		log.Printf("Item %s: falha ao renovar metadados: %v", item.ItemID, err)
	} else {
		if it.Title != "" {
			res.Title = it.Title
		}
		if it.SellerID != nil {
			res.MySellerID = it.SellerID
		}
		if it.CatalogProductID != "" {
			res.CatalogProductID = it.CatalogProductID
		}
	}

	// Sem catalog id não há como buscar concorrentes: observação neutra
	if res.CatalogProductID == "" {
		return res, nil
	}

	offers, err := r.api.SearchByCatalog(ctx, res.CatalogProductID, searchLimit)
	if err != nil {
		return nil, err
	}

	// Menor preço entre ofertas de terceiros; o < estrito mantém a primeira
	// oferta em caso de empate, preservando a ordem de relevância da API
	var best *Competitor
	for _, offer := range offers {
		if res.MySellerID != nil && offer.SellerID != nil && *offer.SellerID == *res.MySellerID {
			continue
		}
		if best == nil || offer.Price < best.Price {
			best = &Competitor{ItemID: offer.ItemID, SellerID: offer.SellerID, Price: offer.Price}
		}
	}

	// Nenhuma oferta elegível também é observação neutra
	res.Competitor = best
	return res, nil
}

func (r *Resolver) fallbackPrice(itemID string) (float64, bool) {
	if r.fallback == nil {
		return 0, false
	}
	price, err := r.fallback.GetPrice(mercadolivre.ItemLink(itemID))
	if err != nil {
		return 0, false
	}
	return price, true
}
