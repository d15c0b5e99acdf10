package models

import (
	"fmt"
	"strings"
	"time"
)

// Mode define como o preço concorrente de um item é resolvido
type Mode string

const (
	// ModeListing lê o preço do próprio anúncio monitorado
	ModeListing Mode = "listing"
	// ModeCatalog busca a oferta mais barata de terceiros no mesmo catálogo
	ModeCatalog Mode = "catalog"
)

// ParseMode valida um modo vindo de comando ou do banco.
// Valores desconhecidos são rejeitados na fronteira.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeListing:
		return ModeListing, nil
	case ModeCatalog:
		return ModeCatalog, nil
	}
	return "", fmt.Errorf("modo inválido: %q (use listing ou catalog)", s)
}

// State é o último estado calculado de um item
type State string

const (
	StateOK       State = "OK"
	StateUndercut State = "UNDERCUT"
)

// ParseState valida um estado vindo do banco. Linhas antigas sem estado
// contam como OK.
func ParseState(s string) (State, error) {
	switch State(strings.ToUpper(strings.TrimSpace(s))) {
	case StateOK, "":
		return StateOK, nil
	case StateUndercut:
		return StateUndercut, nil
	}
	return "", fmt.Errorf("estado inválido: %q", s)
}

// TrackedItem representa um anúncio do Mercado Livre sendo monitorado
type TrackedItem struct {
	ID               int64
	ItemID           string
	Title            string
	MyPrice          float64
	UndercutReais    float64
	Mode             Mode
	MySellerID       *int64
	CatalogProductID string

	// LastSeenPrice é o último preço concorrente observado (qualquer estado).
	// LastAlertPrice só muda quando um alerta é disparado.
	LastSeenPrice  *float64
	LastAlertPrice *float64
	LastState      State
	UpdatedAt      time.Time
}

// FormatPrice formata um preço opcional para exibição
func FormatPrice(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("R$ %.2f", *v)
}
