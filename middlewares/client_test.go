package middlewares

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/apiclient"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/provider"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/repository"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/services"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/utils"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRegistry(t *testing.T) (*services.Registry, *repository.RedisStoreFactory) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	stores := repository.NewRedisStoreFactory(rdb, time.Hour)

	verifier := provider.NewVerifier("secret", "")
	reg := services.NewRegistry(services.RegistryDeps{
		Stores:      stores,
		API:         apiclient.New("http://127.0.0.1:1", apiclient.Options{MaxTries: 1}),
		NewProvider: func() provider.Provider { return provider.NewTokenProvider(verifier) },
	})
	return reg, stores
}

func newTestRouter(reg *services.Registry, roles ...entity.Role) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	r.Use(ClientMiddleware(reg, false, time.Hour))
	r.GET("/whoami", func(c *gin.Context) { c.String(http.StatusOK, utils.CurrentClientID(c)) })
	r.GET("/private", RequireSession(roles...), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func clientCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == ClientCookie {
			return ck
		}
	}
	t.Fatalf("no %s cookie", ClientCookie)
	return nil
}

func TestClientMiddlewareIssuesAndReusesIDs(t *testing.T) {
	reg, _ := newTestRegistry(t)
	r := newTestRouter(reg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	ck := clientCookie(t, w)
	_, err := uuid.Parse(ck.Value)
	require.NoError(t, err)
	assert.Equal(t, ck.Value, w.Body.String())
	assert.True(t, ck.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: ClientCookie, Value: ck.Value})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, ck.Value, w.Body.String())
	assert.Equal(t, 1, reg.Len())

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: ClientCookie, Value: "../../etc"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "../../etc", w.Body.String())
	assert.Equal(t, 2, reg.Len())
}

func TestRequireSession(t *testing.T) {
	reg, stores := newTestRegistry(t)

	signedInAs := func(role entity.Role) string {
		id := uuid.NewString()
		store := stores.For(id)
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, repository.KeyUser, `{"id":"u-1","role":"`+string(role)+`"}`))
		require.NoError(t, store.Set(ctx, repository.KeyToken, "tok"))
		return id
	}

	tests := []struct {
		name     string
		clientID string
		roles    []entity.Role
		status   int
	}{
		{"anonymous", uuid.NewString(), nil, http.StatusUnauthorized},
		{"signed in", signedInAs(entity.RoleCustomer), nil, http.StatusOK},
		{"role allowed", signedInAs(entity.RoleWaiter), []entity.Role{entity.RoleWaiter}, http.StatusOK},
		{"role denied", signedInAs(entity.RoleCustomer), []entity.Role{entity.RoleAdmin}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(reg, tt.roles...)
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			req.AddCookie(&http.Cookie{Name: ClientCookie, Value: tt.clientID})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	// the anonymous visit left its target behind for after sign-in
	anon := tests[0].clientID
	v, ok, err := stores.For(anon).Get(context.Background(), repository.KeyRedirectTarget)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/private", v)
}
