package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ml-tracker/internal/models"
)

func TestIsUndercut(t *testing.T) {
	tests := []struct {
		name       string
		myPrice    float64
		undercut   float64
		competitor float64
		want       bool
	}{
		{"bem abaixo da margem", 100.00, 1.00, 98.00, true},
		{"exatamente no limiar", 100.00, 1.00, 99.00, true},
		{"um centavo acima do limiar", 100.00, 1.00, 99.01, false},
		{"mesmo preço", 100.00, 1.00, 100.00, false},
		{"acima do meu preço", 100.00, 1.00, 150.00, false},
		{"margem zero, preço igual", 100.00, 0, 100.00, true},
		{"margem zero, um centavo acima", 100.00, 0, 100.01, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUndercut(tt.myPrice, tt.undercut, tt.competitor))
		})
	}
}

func TestDecide(t *testing.T) {
	price := func(v float64) *float64 { return &v }

	tests := []struct {
		name           string
		lastState      models.State
		lastAlertPrice *float64
		competitor     float64
		wantState      models.State
		wantAlert      bool
	}{
		{
			name:      "primeira transição OK para UNDERCUT alerta",
			lastState: models.StateOK,
			// myPrice=100, margem=1 em todos os casos
			competitor: 98.00,
			wantState:  models.StateUndercut,
			wantAlert:  true,
		},
		{
			name:           "undercut sustentado com preço idêntico não alerta",
			lastState:      models.StateUndercut,
			lastAlertPrice: price(98.00),
			competitor:     98.00,
			wantState:      models.StateUndercut,
			wantAlert:      false,
		},
		{
			name:           "undercut sustentado com preço mais baixo alerta de novo",
			lastState:      models.StateUndercut,
			lastAlertPrice: price(98.00),
			competitor:     97.00,
			wantState:      models.StateUndercut,
			wantAlert:      true,
		},
		{
			name:           "variação dentro do epsilon é ruído",
			lastState:      models.StateUndercut,
			lastAlertPrice: price(98.00),
			competitor:     98.00005,
			wantState:      models.StateUndercut,
			wantAlert:      false,
		},
		{
			name:           "variação logo acima do epsilon alerta",
			lastState:      models.StateUndercut,
			lastAlertPrice: price(98.00),
			competitor:     97.9995,
			wantState:      models.StateUndercut,
			wantAlert:      true,
		},
		{
			name:           "undercut sustentado sem preço de alerta registrado alerta",
			lastState:      models.StateUndercut,
			lastAlertPrice: nil,
			competitor:     98.00,
			wantState:      models.StateUndercut,
			wantAlert:      true,
		},
		{
			name:           "volta para OK nunca alerta",
			lastState:      models.StateUndercut,
			lastAlertPrice: price(98.00),
			competitor:     100.00,
			wantState:      models.StateOK,
			wantAlert:      false,
		},
		{
			name:       "OK sustentado não alerta",
			lastState:  models.StateOK,
			competitor: 100.00,
			wantState:  models.StateOK,
			wantAlert:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.lastState, tt.lastAlertPrice, 100.00, 1.00, tt.competitor)
			assert.Equal(t, tt.wantState, d.State)
			assert.Equal(t, tt.wantAlert, d.Alert)
		})
	}
}
