package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ml-tracker/internal/models"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewWithConn(conn), mock
}

func itemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "item_id", "title", "my_price", "undercut_reais", "mode",
		"my_seller_id", "catalog_product_id", "last_seen_price",
		"last_alert_price", "last_state", "updated_at",
	})
}

func TestUpsertItem(t *testing.T) {
	db, mock := newMockDB(t)

	sellerID := int64(149015608)
	it := &models.TrackedItem{
		ItemID:           "MLB123456789",
		Title:            "Fone de ouvido",
		MyPrice:          299.90,
		UndercutReais:    1.00,
		Mode:             models.ModeCatalog,
		MySellerID:       &sellerID,
		CatalogProductID: "MLB777",
	}

	mock.ExpectExec("INSERT INTO tracked_items").
		WithArgs("MLB123456789", "Fone de ouvido", 299.90, 1.00, "catalog",
			sellerID, "MLB777", nil, "OK", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, db.UpsertItem(it))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetItem(t *testing.T) {
	db, mock := newMockDB(t)

	now := time.Now().Unix()
	mock.ExpectQuery("SELECT (.+) FROM tracked_items WHERE item_id").
		WithArgs("MLB123456789").
		WillReturnRows(itemRows().AddRow(
			1, "MLB123456789", "Fone de ouvido", 299.90, 1.00, "listing",
			nil, nil, 250.00, nil, "UNDERCUT", now))

	it, err := db.GetItem("MLB123456789")
	require.NoError(t, err)
	assert.Equal(t, "MLB123456789", it.ItemID)
	assert.Equal(t, models.ModeListing, it.Mode)
	assert.Equal(t, models.StateUndercut, it.LastState)
	require.NotNil(t, it.LastSeenPrice)
	assert.Equal(t, 250.00, *it.LastSeenPrice)
	assert.Nil(t, it.LastAlertPrice)
	assert.Nil(t, it.MySellerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetItemNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM tracked_items WHERE item_id").
		WithArgs("MLB000").
		WillReturnRows(itemRows())

	_, err := db.GetItem("MLB000")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetItemRejectsUnknownMode(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM tracked_items WHERE item_id").
		WithArgs("MLB1").
		WillReturnRows(itemRows().AddRow(
			1, "MLB1", "x", 10.0, 1.0, "buybox", nil, nil, nil, nil, "OK", 0))

	_, err := db.GetItem("MLB1")
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListItems(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM tracked_items ORDER BY id DESC").
		WillReturnRows(itemRows().
			AddRow(2, "MLB2", "B", 50.0, 2.0, "catalog", 7, "MLB-CAT", nil, nil, "OK", 0).
			AddRow(1, "MLB1", "A", 10.0, 1.0, "listing", nil, nil, 9.5, 9.5, "UNDERCUT", 0))

	items, err := db.ListItems()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "MLB2", items[0].ItemID)
	require.NotNil(t, items[0].MySellerID)
	assert.Equal(t, int64(7), *items[0].MySellerID)
	assert.Equal(t, models.StateUndercut, items[1].LastState)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveItem(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("DELETE FROM tracked_items WHERE item_id").
		WithArgs("MLB1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM tracked_items WHERE item_id").
		WithArgs("MLB2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := db.RemoveItem("MLB1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.RemoveItem("MLB2")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetMyPrice(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE tracked_items SET my_price").
		WithArgs(279.90, sqlmock.AnyArg(), "MLB1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := db.SetMyPrice("MLB1", 279.90)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAlertSetsBothPrices(t *testing.T) {
	db, mock := newMockDB(t)

	sellerID := int64(42)
	mock.ExpectExec("UPDATE tracked_items").
		WithArgs("Fone", sellerID, "MLB-CAT", 98.0, 98.0, "UNDERCUT",
			sqlmock.AnyArg(), "MLB1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := db.UpdateAlert("MLB1", "Fone", &sellerID, "MLB-CAT", 98.0)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateObservationKeepsAlertPrice(t *testing.T) {
	db, mock := newMockDB(t)

	// a query não menciona last_alert_price
	mock.ExpectExec(`UPDATE tracked_items\s+SET title = \?, my_seller_id = COALESCE\(\?, my_seller_id\),\s+catalog_product_id = COALESCE\(\?, catalog_product_id\),\s+last_seen_price = \?, last_state = \?, updated_at = \?`).
		WithArgs("Fone", nil, nil, 120.0, "OK", sqlmock.AnyArg(), "MLB1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := db.UpdateObservation("MLB1", "Fone", nil, "", 120.0, models.StateOK)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateNeutralTouchesOnlyMetadata(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`UPDATE tracked_items\s+SET title = \?, my_seller_id = COALESCE\(\?, my_seller_id\),\s+catalog_product_id = COALESCE\(\?, catalog_product_id\),\s+last_state = \?, updated_at = \?`).
		WithArgs("Fone", nil, "MLB-CAT", "OK", sqlmock.AnyArg(), "MLB1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := db.UpdateNeutral("MLB1", "Fone", nil, "MLB-CAT")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
