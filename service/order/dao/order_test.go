package dao

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/xiaoxuxiansheng/gocheckout/protocol"
)

func Test_OrderDAO(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Error(err)
		return
	}
	defer db.Close()
	mock.ExpectQuery("SELECT VERSION()").WillReturnRows(sqlmock.NewRows([]string{"VERSION"}).AddRow("1"))

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn: db,
	}), &gorm.Config{
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Error(err)
		return
	}

	ctx := context.Background()
	orderDAO := NewOrderDAO(gdb)

	tests := []struct {
		name string
		f    func()
	}{
		{
			name: "CreateOrder",
			f: func() {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO `orders` \\(`order_id`,`user_id`\\) VALUES \\(\\?,\\?\\)").WithArgs("o1", "u1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
				assert.Nil(t, orderDAO.CreateOrder(ctx, &Order{OrderID: "o1", UserID: "u1"}))
			},
		},
		{
			name: "GetOrder",
			f: func() {
				mock.ExpectQuery("SELECT \\* FROM `orders` WHERE order_id = \\? LIMIT 2").WithArgs("o1").
					WillReturnRows(sqlmock.NewRows([]string{"order_id", "user_id"}).AddRow("o1", "u1"))
				order, err := orderDAO.GetOrder(ctx, "o1")
				assert.Nil(t, err)
				assert.Equal(t, "u1", order.UserID)
			},
		},
		{
			name: "GetOrderNotFound",
			f: func() {
				mock.ExpectQuery("SELECT \\* FROM `orders` WHERE order_id = \\? LIMIT 2").WithArgs("o2").
					WillReturnRows(sqlmock.NewRows([]string{"order_id", "user_id"}))
				_, err := orderDAO.GetOrder(ctx, "o2")
				assert.True(t, errors.Is(err, protocol.ErrNotFound))
			},
		},
		{
			name: "ListItems",
			f: func() {
				mock.ExpectQuery("SELECT \\* FROM `carts` WHERE order_id = \\? ORDER BY id").WithArgs("o1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "item_id"}).AddRow(1, "o1", "a").AddRow(2, "o1", "a"))
				items, err := orderDAO.ListItems(ctx, "o1")
				assert.Nil(t, err)
				assert.Equal(t, []string{"a", "a"}, items)
			},
		},
		{
			name: "DeleteOrder",
			f: func() {
				mock.ExpectBegin()
				mock.ExpectExec("DELETE FROM `carts` WHERE order_id = \\?").WithArgs("o1").WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectExec("DELETE FROM `orders` WHERE order_id = \\?").WithArgs("o1").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
				assert.Nil(t, orderDAO.DeleteOrder(ctx, "o1"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.f()
		})
	}
	assert.Nil(t, mock.ExpectationsWereMet())
}
