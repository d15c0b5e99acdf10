package mercadolivre

import (
	"regexp"
	"strings"
)

var itemIDPattern = regexp.MustCompile(`(MLB\d{6,})`)

// ExtractItemID identifica um item_id (MLB...) em um texto, que pode ser o
// id puro ou um link de anúncio colado pelo operador
func ExtractItemID(text string) (string, bool) {
	m := itemIDPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(text)))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ItemLink monta o link público de um anúncio
func ItemLink(itemID string) string {
	return "https://www.mercadolivre.com.br/" + itemID
}
