package locations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
)

func setupLocationsDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:locations_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Location{}, &models.Gig{}))

	t.Cleanup(func() {
		conn.Exec(`DELETE FROM gigs`)
		conn.Exec(`DELETE FROM locations`)
	})
	return conn
}

func newLocationsService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{DB: db.NewFromConn(conn), Repo: NewRepository(conn)})
	require.NoError(t, err)
	return svc
}

func TestDeleteDetachesGigs(t *testing.T) {
	conn := setupLocationsDB(t)
	ctx := context.Background()
	svc := newLocationsService(t, conn)

	location, err := svc.Create(ctx, CreateInput{
		Name:    "Warehouse 4",
		Address: "100 Dock St",
		City:    "Portland",
		State:   "OR",
		Zipcode: "97201",
	})
	require.NoError(t, err)

	gig := &models.Gig{
		CompanyID:       uuid.New(),
		CreatedByUserID: uuid.New(),
		Title:           "night shift",
		LocationID:      &location.ID,
	}
	require.NoError(t, conn.Create(gig).Error)

	require.NoError(t, svc.Delete(ctx, location.ID))

	var reloaded models.Gig
	require.NoError(t, conn.First(&reloaded, "id = ?", gig.ID).Error)
	require.Nil(t, reloaded.LocationID)

	_, err = svc.Get(ctx, location.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateRejectsEmptyRequiredField(t *testing.T) {
	conn := setupLocationsDB(t)
	ctx := context.Background()
	svc := newLocationsService(t, conn)

	location, err := svc.Create(ctx, CreateInput{
		Name:    "Studio A",
		Address: "1 Main",
		City:    "Austin",
		State:   "TX",
		Zipcode: "73301",
	})
	require.NoError(t, err)

	empty := "  "
	_, err = svc.Update(ctx, location.ID, UpdateInput{City: &empty})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	newName := "Studio B"
	updated, err := svc.Update(ctx, location.ID, UpdateInput{Name: &newName})
	require.NoError(t, err)
	require.Equal(t, "Studio B", updated.Name)
}
