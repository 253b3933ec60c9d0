package database_test

import (
	"context"
	"testing"

	"github.com/campusconnect/api/database"
	"github.com/campusconnect/api/database/dbtest"
	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeder_IsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	seeder := database.NewSeeder(db, auth.NewHasher(4), utils.NewNopLogger())
	admin := database.AdminAccount{Email: "Admin@CampusConnect.dev", Password: "correct-horse-battery"}

	require.NoError(t, seeder.SeedAll(context.Background(), admin))
	require.NoError(t, seeder.SeedAll(context.Background(), admin))

	var users []model.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "admin@campusconnect.dev", users[0].Email)
	assert.Equal(t, model.RoleAdmin, users[0].Role)
	assert.NoError(t, auth.VerifyPassword(users[0].PasswordHash, "correct-horse-battery"))

	count := func(table interface{}) int64 {
		var n int64
		require.NoError(t, db.Model(table).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(len(database.DefaultUniversities)), count(&model.University{}))
	assert.Equal(t, int64(6), count(&model.Course{}))
	assert.Equal(t, int64(len(database.DefaultDocumentTypes)), count(&model.DocumentType{}))
	assert.Equal(t, int64(len(database.DefaultYears)), count(&model.Year{}))
	assert.Equal(t, int64(len(database.DefaultAreas)), count(&model.Area{}))

	var btech model.Course
	require.NoError(t, db.Where("name = ?", "B.Tech").First(&btech).Error)
	assert.Equal(t, 4, btech.Duration)
}

func TestSeeder_PromotesExistingAccount(t *testing.T) {
	db := dbtest.New(t)
	student := model.User{Email: "lead@campusconnect.dev", Name: "Lead", Role: model.RoleStudent, PasswordHash: "x"}
	require.NoError(t, db.Create(&student).Error)

	seeder := database.NewSeeder(db, auth.NewHasher(4), utils.NewNopLogger())
	require.NoError(t, seeder.SeedAdminUser(context.Background(), database.AdminAccount{Email: student.Email, Password: "whatever-long"}))

	var got model.User
	require.NoError(t, db.First(&got, student.ID).Error)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.Equal(t, 1, got.TokenVersion)
}

func TestSeeder_SkipsAdminWithoutCredentials(t *testing.T) {
	db := dbtest.New(t)
	seeder := database.NewSeeder(db, auth.NewHasher(4), utils.NewNopLogger())

	require.NoError(t, seeder.SeedAdminUser(context.Background(), database.AdminAccount{}))

	var n int64
	require.NoError(t, db.Model(&model.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSeeder_Counts(t *testing.T) {
	db := dbtest.New(t)
	seeder := database.NewSeeder(db, auth.NewHasher(4), utils.NewNopLogger())
	require.NoError(t, seeder.SeedAll(context.Background(), database.AdminAccount{}))

	counts, err := seeder.Counts(context.Background())
	require.NoError(t, err)

	got := map[string]int64{}
	for _, c := range counts {
		got[c.Table] = c.Rows
	}
	assert.Equal(t, map[string]int64{
		"universities":   2,
		"courses":        6,
		"branches":       12,
		"document_types": int64(len(database.DefaultDocumentTypes)),
		"years":          int64(len(database.DefaultYears)),
		"areas":          int64(len(database.DefaultAreas)),
		"users":          0,
	}, got)
}
