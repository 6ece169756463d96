package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andymarkow/bonustier/internal/auth"
	"github.com/andymarkow/bonustier/internal/domain/tiers"
	"github.com/andymarkow/bonustier/internal/server/models"
	"github.com/andymarkow/bonustier/internal/server/router"
	"github.com/andymarkow/bonustier/internal/storage/inmemory"
)

func newTestServer(t *testing.T) *resty.Client {
	t.Helper()

	store := inmemory.NewStorage()
	require.NoError(t, store.SeedTiers(context.Background(), tiers.DefaultTiers()))

	catalog, err := tiers.NewCatalog(tiers.DefaultTiers())
	require.NoError(t, err)

	r := router.NewRouter(store, catalog,
		router.WithSecret([]byte("testsecret")),
	)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return resty.New().SetBaseURL(srv.URL)
}

func registerUser(t *testing.T, client *resty.Client, login, password string) {
	t.Helper()

	resp, err := client.R().
		SetBody(models.UserRequest{Login: login, Password: password}).
		Post("/api/user/register")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode())
}

func loginUser(t *testing.T, client *resty.Client, login, password string) string {
	t.Helper()

	resp, err := client.R().
		SetBody(models.UserRequest{Login: login, Password: password}).
		Post("/api/user/login")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	token := resp.String()
	require.NotEmpty(t, token)
	require.Equal(t, "Bearer "+token, resp.Header().Get("Authorization"))

	return token
}

func TestUserRegister(t *testing.T) {
	client := newTestServer(t)

	registerUser(t, client, "alice", "pw1")

	t.Run("duplicate username", func(t *testing.T) {
		resp, err := client.R().
			SetBody(models.UserRequest{Login: "alice", Password: "other"}).
			Post("/api/user/register")
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode())
	})

	t.Run("empty payload", func(t *testing.T) {
		resp, err := client.R().Post("/api/user/register")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	})

	t.Run("empty login", func(t *testing.T) {
		resp, err := client.R().
			SetBody(models.UserRequest{Password: "pw1"}).
			Post("/api/user/register")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	})
}

func TestUserLogin(t *testing.T) {
	client := newTestServer(t)

	registerUser(t, client, "alice", "pw1")

	t.Run("valid credentials", func(t *testing.T) {
		loginUser(t, client, "alice", "pw1")
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, err := client.R().
			SetBody(models.UserRequest{Login: "alice", Password: "wrong"}).
			Post("/api/user/login")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	})

	t.Run("unknown login", func(t *testing.T) {
		resp, err := client.R().
			SetBody(models.UserRequest{Login: "bob", Password: "pw1"}).
			Post("/api/user/login")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	})
}

func TestGetUserBonus(t *testing.T) {
	client := newTestServer(t)

	registerUser(t, client, "alice", "pw1")
	token := loginUser(t, client, "alice", "pw1")

	t.Run("fresh account at base level", func(t *testing.T) {
		resp, err := client.R().SetAuthToken(token).Get("/api/user/bonus")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode())

		var status models.BonusStatusResponse
		require.NoError(t, json.Unmarshal(resp.Body(), &status))

		assert.Equal(t, "Bronze", status.CurrentLevel)
		assert.Zero(t, status.Spending)
		require.NotNil(t, status.NextLevel)
		assert.Equal(t, "Silver", status.NextLevel.LevelName)
		assert.InDelta(t, 1000, status.NextLevel.MinSpending, 0.0001)
	})

	t.Run("missing token", func(t *testing.T) {
		resp, err := client.R().Get("/api/user/bonus")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	})

	t.Run("malformed token", func(t *testing.T) {
		resp, err := client.R().SetAuthToken("not-a-token").Get("/api/user/bonus")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	})

	t.Run("valid token for missing account", func(t *testing.T) {
		orphan, err := auth.NewJWTAuth([]byte("testsecret")).CreateJWTString("missing-account-id")
		require.NoError(t, err)

		resp, err := client.R().SetAuthToken(orphan).Get("/api/user/bonus")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	})
}

func TestAddUserSpending(t *testing.T) {
	client := newTestServer(t)

	registerUser(t, client, "alice", "pw1")
	token := loginUser(t, client, "alice", "pw1")

	t.Run("accrue promotes to silver", func(t *testing.T) {
		resp, err := client.R().SetAuthToken(token).
			SetBody(map[string]any{"spending_amount": 1200}).
			Post("/api/user/spending")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode())

		var spending models.SpendingResponse
		require.NoError(t, json.Unmarshal(resp.Body(), &spending))

		assert.InDelta(t, 1200, spending.NewSpending, 0.0001)
		assert.Equal(t, "Silver", spending.NewLevel)

		status := getBonusStatus(t, client, token)
		assert.Equal(t, "Silver", status.CurrentLevel)
		require.NotNil(t, status.NextLevel)
		assert.Equal(t, "Gold", status.NextLevel.LevelName)
		assert.InDelta(t, 3800, status.NextLevel.MinSpending, 0.0001)
	})

	t.Run("accrue to top tier leaves no next level", func(t *testing.T) {
		resp, err := client.R().SetAuthToken(token).
			SetBody(map[string]any{"spending_amount": 8800}).
			Post("/api/user/spending")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode())

		var spending models.SpendingResponse
		require.NoError(t, json.Unmarshal(resp.Body(), &spending))

		assert.InDelta(t, 10000, spending.NewSpending, 0.0001)
		assert.Equal(t, "Platinum", spending.NewLevel)

		status := getBonusStatus(t, client, token)
		assert.Equal(t, "Platinum", status.CurrentLevel)
		assert.Nil(t, status.NextLevel)
	})

	t.Run("rejected amounts leave spending unchanged", func(t *testing.T) {
		before := getBonusStatus(t, client, token)

		for _, body := range []map[string]any{
			{"spending_amount": 0},
			{"spending_amount": -5},
			{"spending_amount": "abc"},
		} {
			resp, err := client.R().SetAuthToken(token).
				SetBody(body).
				Post("/api/user/spending")
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
		}

		after := getBonusStatus(t, client, token)
		assert.Equal(t, before.Spending, after.Spending)
		assert.Equal(t, before.CurrentLevel, after.CurrentLevel)
	})

	t.Run("missing token", func(t *testing.T) {
		resp, err := client.R().
			SetBody(map[string]any{"spending_amount": 100}).
			Post("/api/user/spending")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	})
}

func getBonusStatus(t *testing.T, client *resty.Client, token string) models.BonusStatusResponse {
	t.Helper()

	resp, err := client.R().SetAuthToken(token).Get("/api/user/bonus")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var status models.BonusStatusResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &status))

	return status
}
