package helpers

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/givecycle/marketplace/internal/repository"
	"github.com/givecycle/marketplace/pkg/pg"
	"github.com/givecycle/marketplace/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

func SetupTestDB(t *testing.T) *pg.DB {
	dsn := fmt.Sprintf("file:helpertest%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.UserEntity{},
		&repository.DonationEntity{},
		&repository.ListingEntity{},
		&repository.TransactionEntity{},
		&repository.NotificationEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	connName := fmt.Sprintf("helper-%d", time.Now().UnixNano())
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestUser(t *testing.T, db *pg.DB, id int64, name, role string, balance uint) *repository.UserEntity {
	ctx := context.Background()
	user := &repository.UserEntity{
		ID:      id,
		Name:    name,
		Role:    role,
		Balance: balance,
	}
	err := db.Write(ctx).Create(user).Error
	require.NoError(t, err)
	return user
}

func CreateTestDonation(t *testing.T, db *pg.DB, donorID int64, title, category string, value uint) *repository.DonationEntity {
	ctx := context.Background()
	donation := &repository.DonationEntity{
		DonorID:  donorID,
		Title:    title,
		Category: category,
		Value:    value,
		Status:   "uploaded",
	}
	err := db.Write(ctx).Create(donation).Error
	require.NoError(t, err)
	return donation
}

func CreateTestListing(t *testing.T, db *pg.DB, ownerID int64, title string, price, credits uint) *repository.ListingEntity {
	ctx := context.Background()
	listing := &repository.ListingEntity{
		OwnerID:     ownerID,
		Title:       title,
		Category:    "general",
		Price:       price,
		Credits:     credits,
		IsAvailable: true,
	}
	err := db.Write(ctx).Create(listing).Error
	require.NoError(t, err)
	return listing
}

func CreateTestTransaction(t *testing.T, db *pg.DB, accountID int64, amount uint, txnType string, listingID *int64) *repository.TransactionEntity {
	ctx := context.Background()
	txn := &repository.TransactionEntity{
		AccountID: accountID,
		Amount:    amount,
		Type:      txnType,
		ListingID: listingID,
	}
	err := db.Write(ctx).Create(txn).Error
	require.NoError(t, err)
	return txn
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
