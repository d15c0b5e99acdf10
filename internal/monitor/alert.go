package monitor

import (
	"math"

	"ml-tracker/internal/models"
)

// priceEpsilon separa movimento real de preço de ruído de arredondamento ao
// comparar com o preço do último alerta
const priceEpsilon = 0.0001

// IsUndercut indica se o preço concorrente furou a margem configurada.
// A igualdade exata no limiar conta como undercut.
func IsUndercut(myPrice, undercut, competitorPrice float64) bool {
	return competitorPrice <= myPrice-undercut
}

// Decision é a saída da máquina de estados de alerta para uma observação
type Decision struct {
	State models.State
	Alert bool
}

// Decide calcula o novo estado do item e se um alerta deve ser disparado.
//
// Um alerta dispara na transição OK -> UNDERCUT e, dentro de um undercut
// sustentado, quando o preço concorrente se distancia do preço do último
// alerta além do epsilon. Undercut sustentado com preço parado não notifica
// de novo.
func Decide(lastState models.State, lastAlertPrice *float64, myPrice, undercut, competitorPrice float64) Decision {
	if !IsUndercut(myPrice, undercut, competitorPrice) {
		return Decision{State: models.StateOK}
	}

	d := Decision{State: models.StateUndercut}
	switch {
	case lastState != models.StateUndercut:
		d.Alert = true
	case lastAlertPrice == nil:
		d.Alert = true
	case math.Abs(*lastAlertPrice-competitorPrice) > priceEpsilon:
		d.Alert = true
	}
	return d
}
