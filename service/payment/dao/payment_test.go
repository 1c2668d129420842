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

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	mock.ExpectQuery("SELECT VERSION()").WillReturnRows(sqlmock.NewRows([]string{"VERSION"}).AddRow("1"))

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn: db,
	}), &gorm.Config{
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return gdb, mock
}

func Test_Session(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		f    func(t *testing.T, paymentDAO *PaymentDAO, mock sqlmock.Sqlmock)
	}{
		{
			name: "FindUser",
			f: func(t *testing.T, paymentDAO *PaymentDAO, mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT \\* FROM `users` WHERE user_id = \\? LIMIT 2 FOR UPDATE").WithArgs("u1").
					WillReturnRows(sqlmock.NewRows([]string{"user_id", "credit"}).AddRow("u1", 100))
				mock.ExpectCommit()

				session, err := paymentDAO.Begin(ctx)
				if !assert.Nil(t, err) {
					return
				}
				user, err := session.FindUser(ctx, "u1")
				assert.Nil(t, err)
				assert.Equal(t, float64(100), user.Credit)
				assert.Nil(t, session.Commit())
			},
		},
		{
			name: "FindUserNotFound",
			f: func(t *testing.T, paymentDAO *PaymentDAO, mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT \\* FROM `users` WHERE user_id = \\? LIMIT 2 FOR UPDATE").WithArgs("u1").
					WillReturnRows(sqlmock.NewRows([]string{"user_id", "credit"}))
				mock.ExpectRollback()

				session, err := paymentDAO.Begin(ctx)
				if !assert.Nil(t, err) {
					return
				}
				_, err = session.FindUser(ctx, "u1")
				assert.True(t, errors.Is(err, protocol.ErrNotFound))
				assert.Nil(t, session.Rollback())
			},
		},
		{
			name: "FindUserMultiple",
			f: func(t *testing.T, paymentDAO *PaymentDAO, mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT \\* FROM `users` WHERE user_id = \\? LIMIT 2 FOR UPDATE").WithArgs("u1").
					WillReturnRows(sqlmock.NewRows([]string{"user_id", "credit"}).AddRow("u1", 1).AddRow("u1", 2))
				mock.ExpectRollback()

				session, err := paymentDAO.Begin(ctx)
				if !assert.Nil(t, err) {
					return
				}
				_, err = session.FindUser(ctx, "u1")
				assert.True(t, errors.Is(err, protocol.ErrMultipleFound))
				assert.Nil(t, session.Rollback())
			},
		},
		{
			name: "Debit",
			f: func(t *testing.T, paymentDAO *PaymentDAO, mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `users` SET `credit`=credit \\+ \\? WHERE user_id = \\?").WithArgs(float64(-20), "u1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO `payments`").WithArgs("u1", "o1", float64(20)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()

				session, err := paymentDAO.Begin(ctx)
				if !assert.Nil(t, err) {
					return
				}
				assert.Nil(t, session.AddCredit(ctx, "u1", -20))
				payment := Payment{UserID: "u1", OrderID: "o1", Amount: 20}
				assert.Nil(t, session.CreatePayment(ctx, &payment))
				assert.Equal(t, uint(1), payment.PaymentID)
				assert.Nil(t, session.Commit())
			},
		},
		{
			name: "FindPaymentMissing",
			f: func(t *testing.T, paymentDAO *PaymentDAO, mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT \\* FROM `payments` WHERE user_id = \\? AND order_id = \\? LIMIT 2").WithArgs("u1", "o1").
					WillReturnRows(sqlmock.NewRows([]string{"payment_id", "user_id", "order_id", "amount"}))
				mock.ExpectRollback()

				session, err := paymentDAO.Begin(ctx)
				if !assert.Nil(t, err) {
					return
				}
				payment, err := session.FindPayment(ctx, "u1", "o1")
				assert.Nil(t, err)
				assert.Nil(t, payment)
				assert.Nil(t, session.Rollback())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdb, mock := newMockDB(t)
			tt.f(t, NewPaymentDAO(gdb), mock)
			assert.Nil(t, mock.ExpectationsWereMet())
		})
	}
}
