package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"boltnexus/database"
	"boltnexus/utils"
)

var fixedNow = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.SetTestLoggerNop()

	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newTestApplianceService(db *gorm.DB) *ApplianceService {
	s := NewApplianceService(db)
	s.now = func() time.Time { return fixedNow }
	return s
}

func seedUser(t *testing.T, db *gorm.DB, email string) database.User {
	t.Helper()
	u := database.User{Name: "Test User", Email: email, Phone: "9000000000", City: "Pune"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedAppliance(t *testing.T, db *gorm.DB, a database.Appliance) database.Appliance {
	t.Helper()
	if a.Status == "" {
		a.Status = database.ApplianceStatusActive
	}
	require.NoError(t, db.Create(&a).Error)
	return a
}

func seedTechnician(t *testing.T, db *gorm.DB, email string, status database.TechnicianStatus) database.Technician {
	t.Helper()
	tech := database.Technician{Name: "Ravi", Email: email, Phone: "9111111111", Status: status}
	require.NoError(t, db.Create(&tech).Error)
	return tech
}

func reloadBooking(t *testing.T, db *gorm.DB, id uint) database.Booking {
	t.Helper()
	var b database.Booking
	require.NoError(t, db.First(&b, id).Error)
	return b
}

func reloadAppliance(t *testing.T, db *gorm.DB, id uint) database.Appliance {
	t.Helper()
	var a database.Appliance
	require.NoError(t, db.First(&a, id).Error)
	return a
}

func reloadPayment(t *testing.T, db *gorm.DB, id uint) database.Payment {
	t.Helper()
	var p database.Payment
	require.NoError(t, db.First(&p, id).Error)
	return p
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

// failUpdatesOn makes every UPDATE against table fail, for rollback tests
func failUpdatesOn(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	err := db.Callback().Update().Before("gorm:update").Register("test:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errors.New("injected update failure"))
		}
	})
	require.NoError(t, err)
}

// interleaveUpdateOn runs write on the statement's connection right before the
// first UPDATE against table, as if another request had committed it just ahead
func interleaveUpdateOn(t *testing.T, db *gorm.DB, table string, write func(tx *gorm.DB) error) {
	t.Helper()
	var once sync.Once
	err := db.Callback().Update().Before("gorm:update").Register("test:interleave_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table != table {
			return
		}
		once.Do(func() {
			if err := write(tx.Session(&gorm.Session{NewDB: true})); err != nil {
				_ = tx.AddError(err)
			}
		})
	})
	require.NoError(t, err)
}
