package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"ml-tracker/internal/mercadolivre"
	"ml-tracker/internal/metrics"
	"ml-tracker/internal/models"
)

// Notifier entrega uma mensagem de texto ao operador
type Notifier interface {
	Send(text string) error
}

// Store é a visão do monitor sobre a persistência dos itens
type Store interface {
	ListItems() ([]models.TrackedItem, error)
	UpdateNeutral(itemID, title string, sellerID *int64, catalogID string) error
	UpdateObservation(itemID, title string, sellerID *int64, catalogID string, price float64, state models.State) error
	UpdateAlert(itemID, title string, sellerID *int64, catalogID string, price float64) error
}

// Monitor executa o ciclo periódico de verificação sobre os itens
// monitorados. Todo o estado entre ciclos vive no banco.
type Monitor struct {
	store    Store
	resolver *Resolver
	notifier Notifier
	interval time.Duration

	// Garante que dois ciclos nunca rodem ao mesmo tempo; se o anterior
	// ainda estiver rodando quando o ticker disparar, o novo é pulado
	running sync.Mutex
}

// New cria uma nova instância do monitor
func New(store Store, resolver *Resolver, notifier Notifier, interval time.Duration) *Monitor {
	return &Monitor{
		store:    store,
		resolver: resolver,
		notifier: notifier,
		interval: interval,
	}
}

// Start roda ciclos de verificação até o contexto ser cancelado
func (m *Monitor) Start(ctx context.Context) {
	log.Printf("Monitor iniciado. Verificando itens a cada %v", m.interval)

	m.RunCycle(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.RunCycle(ctx)
		case <-ctx.Done():
			log.Println("Monitor encerrado")
			return
		}
	}
}

// RunCycle executa uma passada completa sobre todos os itens. Nenhuma falha
// individual interrompe a passada.
func (m *Monitor) RunCycle(ctx context.Context) {
	if !m.running.TryLock() {
		log.Println("Ciclo anterior ainda em andamento, pulando")
		metrics.CyclesSkipped.Inc()
		return
	}
	defer m.running.Unlock()

	start := time.Now()

	items, err := m.store.ListItems()
	if err != nil {
		log.Printf("Erro ao listar itens monitorados: %v", err)
		return
	}

	for i := range items {
		if ctx.Err() != nil {
			return
		}
		m.checkItem(ctx, &items[i])
	}

	metrics.CyclesTotal.Inc()
	metrics.CycleDuration.Observe(time.Since(start).Seconds())
}

// CheckItem verifica um único item sob demanda (comando /check). Entra na
// mesma fila do ciclo periódico para não concorrer com ele.
func (m *Monitor) CheckItem(ctx context.Context, item *models.TrackedItem) {
	m.running.Lock()
	defer m.running.Unlock()
	m.checkItem(ctx, item)
}

func (m *Monitor) checkItem(ctx context.Context, item *models.TrackedItem) {
	res, err := m.resolver.Resolve(ctx, item)
	if err != nil {
		// Sem observação: o item fica como está até o próximo ciclo
		log.Printf("Item %s: sem observação neste ciclo: %v", item.ItemID, err)
		metrics.APIErrors.Inc()
		return
	}

	title := res.Title
	if title == "" {
		title = item.Title
	}

	if res.Competitor == nil {
		if err := m.store.UpdateNeutral(item.ItemID, title, res.MySellerID, res.CatalogProductID); err != nil {
			log.Printf("Item %s: erro ao persistir observação neutra: %v", item.ItemID, err)
		}
		return
	}

	metrics.ItemsChecked.Inc()

	d := Decide(item.LastState, item.LastAlertPrice, item.MyPrice, item.UndercutReais, res.Competitor.Price)

	if !d.Alert {
		if err := m.store.UpdateObservation(item.ItemID, title, res.MySellerID,
			res.CatalogProductID, res.Competitor.Price, d.State); err != nil {
			log.Printf("Item %s: erro ao persistir observação: %v", item.ItemID, err)
		}
		return
	}

	// Notificação falha não é retentada nem bloqueia a atualização do item
	if err := m.notifier.Send(m.formatAlert(item, res, title)); err != nil {
		log.Printf("Item %s: erro ao enviar alerta: %v", item.ItemID, err)
	}
	metrics.AlertsTotal.Inc()

	if err := m.store.UpdateAlert(item.ItemID, title, res.MySellerID,
		res.CatalogProductID, res.Competitor.Price); err != nil {
		log.Printf("Item %s: erro ao persistir alerta: %v", item.ItemID, err)
	}
}

func (m *Monitor) formatAlert(item *models.TrackedItem, res *Resolution, title string) string {
	if title == "" {
		title = item.ItemID
	}

	competitorSeller := "—"
	if res.Competitor.SellerID != nil {
		competitorSeller = fmt.Sprintf("%d", *res.Competitor.SellerID)
	}

	return fmt.Sprintf(
		"🔥 ALERTA (ML) — CONCORRENTE ABAIXO DO SEU PREÇO\n"+
			"Produto base: %s\n"+
			"Modo: %s\n"+
			"Seu preço: R$ %.2f\n"+
			"Concorrente: R$ %.2f\n"+
			"Margem: R$ %.2f\n"+
			"Item concorrente: %s\n"+
			"Seller concorrente: %s\n"+
			"Link: %s",
		title, item.Mode, item.MyPrice, res.Competitor.Price, item.UndercutReais,
		res.Competitor.ItemID, competitorSeller,
		mercadolivre.ItemLink(res.Competitor.ItemID))
}
