package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nafishasalsabil/reddit-clone/internal/models"
)

var (
	testDBOnce sync.Once
	testDB     *gorm.DB
	testDBErr  error
)

func init() {
	gin.SetMode(gin.TestMode)
}

// sharedDB spins up one Postgres container for the whole package. Tests
// are skipped in -short mode since they need Docker.
func sharedDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed tests in short mode")
	}

	testDBOnce.Do(func() {
		ctx := context.Background()
		container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("reddit_test"),
			tcpostgres.WithUsername("test"),
			tcpostgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		if err != nil {
			testDBErr = err
			return
		}
		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			testDBErr = err
			return
		}
		db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			testDBErr = err
			return
		}
		testDBErr = db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}, &models.Vote{})
		testDB = db
	})
	if testDBErr != nil {
		t.Fatalf("test database setup: %v", testDBErr)
	}

	require.NoError(t, testDB.Exec("TRUNCATE votes, comments, posts, users RESTART IDENTITY CASCADE").Error)
	return testDB
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedPost(t *testing.T, db *gorm.DB, authorID int) models.Post {
	t.Helper()
	post := models.Post{Title: "hello", AuthorID: authorID, CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&post).Error)
	return post
}

// jsonRequest builds an authenticated gin test context carrying body and
// route params, the shape handlers see behind the auth middleware.
func jsonRequest(t *testing.T, userID int, body string, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	c.Set("user_id", userID)
	return c, w
}
