package database

import (
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	"ml-tracker/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound indica que o item não está sendo monitorado
var ErrNotFound = errors.New("item não encontrado")

// DB encapsula a conexão com o banco de dados.
// Todas as escritas são serializadas pelo mutex: o ciclo de verificação e os
// comandos do bot rodam em goroutines diferentes sobre os mesmos itens.
type DB struct {
	mu   sync.Mutex
	conn *sql.DB
}

// New cria uma nova instância do banco de dados
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn}

	if err := db.init(); err != nil {
		conn.Close()
		return nil, err
	}

	log.Println("Banco de dados inicializado com sucesso")
	return db, nil
}

// NewWithConn cria uma instância sobre uma conexão existente (testes)
func NewWithConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Close fecha a conexão com o banco de dados
func (db *DB) Close() error {
	return db.conn.Close()
}

// init cria as tabelas necessárias
func (db *DB) init() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS tracked_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT UNIQUE NOT NULL,
		title TEXT,
		my_price REAL NOT NULL,
		undercut_reais REAL NOT NULL DEFAULT 1.0,
		mode TEXT NOT NULL DEFAULT 'listing',
		my_seller_id INTEGER,
		catalog_product_id TEXT,
		last_seen_price REAL,
		last_alert_price REAL,
		last_state TEXT,
		updated_at INTEGER
	);
	`

	_, err := db.conn.Exec(createTableSQL)
	return err
}

const itemColumns = `id, item_id, title, my_price, undercut_reais, mode,
	my_seller_id, catalog_product_id, last_seen_price, last_alert_price,
	last_state, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*models.TrackedItem, error) {
	var it models.TrackedItem
	var title, catalogID, modeStr, stateStr sql.NullString
	var sellerID sql.NullInt64
	var seenPrice, alertPrice sql.NullFloat64
	var updatedAt sql.NullInt64

	err := row.Scan(&it.ID, &it.ItemID, &title, &it.MyPrice, &it.UndercutReais,
		&modeStr, &sellerID, &catalogID, &seenPrice, &alertPrice, &stateStr, &updatedAt)
	if err != nil {
		return nil, err
	}

	it.Title = title.String
	it.CatalogProductID = catalogID.String
	if sellerID.Valid {
		v := sellerID.Int64
		it.MySellerID = &v
	}
	if seenPrice.Valid {
		v := seenPrice.Float64
		it.LastSeenPrice = &v
	}
	if alertPrice.Valid {
		v := alertPrice.Float64
		it.LastAlertPrice = &v
	}
	if updatedAt.Valid {
		it.UpdatedAt = time.Unix(updatedAt.Int64, 0)
	}

	// Valores desconhecidos são rejeitados na fronteira do banco
	if it.Mode, err = models.ParseMode(modeStr.String); err != nil {
		return nil, err
	}
	if it.LastState, err = models.ParseState(stateStr.String); err != nil {
		return nil, err
	}

	return &it, nil
}

// UpsertItem insere um item ou, se o item_id já existir, sobrescreve a
// configuração. O estado de alerta acumulado (last_alert_price, last_state)
// não é tocado no re-add.
func (db *DB) UpsertItem(it *models.TrackedItem) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
	INSERT INTO tracked_items (
		item_id, title, my_price, undercut_reais, mode,
		my_seller_id, catalog_product_id,
		last_seen_price, last_state, updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(item_id) DO UPDATE SET
		title=excluded.title,
		my_price=excluded.my_price,
		undercut_reais=excluded.undercut_reais,
		mode=excluded.mode,
		my_seller_id=excluded.my_seller_id,
		catalog_product_id=excluded.catalog_product_id,
		last_seen_price=excluded.last_seen_price,
		updated_at=excluded.updated_at`,
		it.ItemID, it.Title, it.MyPrice, it.UndercutReais, string(it.Mode),
		nullableInt(it.MySellerID), nullableString(it.CatalogProductID),
		nullableFloat(it.LastSeenPrice), string(models.StateOK), time.Now().Unix())
	return err
}

// GetItem busca um item pelo item_id
func (db *DB) GetItem(itemID string) (*models.TrackedItem, error) {
	row := db.conn.QueryRow(
		"SELECT "+itemColumns+" FROM tracked_items WHERE item_id = ?", itemID)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return it, err
}

// ListItems retorna todos os itens monitorados, mais recentes primeiro
func (db *DB) ListItems() ([]models.TrackedItem, error) {
	rows, err := db.conn.Query(
		"SELECT " + itemColumns + " FROM tracked_items ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.TrackedItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// RemoveItem apaga um item do monitoramento
func (db *DB) RemoveItem(itemID string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.Exec("DELETE FROM tracked_items WHERE item_id = ?", itemID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetMyPrice atualiza o preço do operador
func (db *DB) SetMyPrice(itemID string, price float64) (bool, error) {
	return db.updateField("my_price", itemID, price)
}

// SetUndercut atualiza a margem de alerta
func (db *DB) SetUndercut(itemID string, undercut float64) (bool, error) {
	return db.updateField("undercut_reais", itemID, undercut)
}

// SetMode atualiza o modo de resolução. A validação de catálogo é feita no
// handler, que precisa do registro para checar o catalog_product_id.
func (db *DB) SetMode(itemID string, mode models.Mode) (bool, error) {
	return db.updateField("mode", itemID, string(mode))
}

func (db *DB) updateField(column, itemID string, value interface{}) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.Exec(
		"UPDATE tracked_items SET "+column+" = ?, updated_at = ? WHERE item_id = ?",
		value, time.Now().Unix(), itemID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateNeutral registra um ciclo sem preço concorrente: atualiza apenas
// título, metadados e estado (OK). Os preços observados não são tocados.
func (db *DB) UpdateNeutral(itemID, title string, sellerID *int64, catalogID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
	UPDATE tracked_items
	SET title = ?, my_seller_id = COALESCE(?, my_seller_id),
		catalog_product_id = COALESCE(?, catalog_product_id),
		last_state = ?, updated_at = ?
	WHERE item_id = ?`,
		title, nullableInt(sellerID), nullableString(catalogID),
		string(models.StateOK), time.Now().Unix(), itemID)
	return err
}

// UpdateObservation registra uma observação com preço que não gerou alerta.
// last_alert_price permanece como está.
func (db *DB) UpdateObservation(itemID, title string, sellerID *int64, catalogID string, price float64, state models.State) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
	UPDATE tracked_items
	SET title = ?, my_seller_id = COALESCE(?, my_seller_id),
		catalog_product_id = COALESCE(?, catalog_product_id),
		last_seen_price = ?, last_state = ?, updated_at = ?
	WHERE item_id = ?`,
		title, nullableInt(sellerID), nullableString(catalogID),
		price, string(state), time.Now().Unix(), itemID)
	return err
}

// UpdateAlert registra uma observação que disparou alerta: last_seen_price e
// last_alert_price recebem o preço concorrente e o estado vira UNDERCUT.
func (db *DB) UpdateAlert(itemID, title string, sellerID *int64, catalogID string, price float64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
	UPDATE tracked_items
	SET title = ?, my_seller_id = COALESCE(?, my_seller_id),
		catalog_product_id = COALESCE(?, catalog_product_id),
		last_seen_price = ?, last_alert_price = ?, last_state = ?, updated_at = ?
	WHERE item_id = ?`,
		title, nullableInt(sellerID), nullableString(catalogID),
		price, price, string(models.StateUndercut), time.Now().Unix(), itemID)
	return err
}

func nullableInt(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
