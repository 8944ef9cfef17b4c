package routes_pins

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/obsidianempire/aoc-map/middlewares"
	"github.com/obsidianempire/aoc-map/models"
	"github.com/obsidianempire/aoc-map/routes"
	"github.com/obsidianempire/aoc-map/sessions"
	"github.com/obsidianempire/aoc-map/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	bob   = &sessions.Identity{DiscordID: "100", Username: "Bob"}
	admin = &sessions.Identity{DiscordID: "200", Username: "RandMiester"}
	eve   = &sessions.Identity{DiscordID: "300", Username: "Eve"}
)

type testEnv struct {
	repo   storage.PinRepository
	svc    *Service
	tokens *sessions.TokenService
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, _, err := storage.OpenDatabase(&storage.Configuration{DatabasePath: filepath.Join(t.TempDir(), "pins.db")})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	require.NoError(t, storage.InitSchema(db))

	repo := storage.NewPinRepository(db)
	svc := NewService(repo, []string{"RandMiester"})
	tokens := sessions.NewTokenService([]byte("pins-test-secret"), time.Hour)

	r := chi.NewRouter()
	r.Get("/pins", ListPinsHandler(svc))
	r.Group(func(r chi.Router) {
		r.Use(middlewares.AuthMiddleware(tokens))
		r.Post("/pins", CreatePinHandler(svc))
		r.Put("/pins/{id}", UpdatePinHandler(svc))
		r.Delete("/pins/{id}", DeletePinHandler(svc))
	})

	return &testEnv{repo: repo, svc: svc, tokens: tokens, router: r}
}

func (e *testEnv) do(t *testing.T, method, path string, who *sessions.Identity, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if who != nil {
		token, err := e.tokens.Create(who.DiscordID, who.Username)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seed(t *testing.T, owner *sessions.Identity) *models.Pin {
	t.Helper()
	pin := &models.Pin{Title: "Iron Mine", Category: "resource", Lat: 12.5, Lng: -3.2, DiscordUserID: owner.DiscordID, DiscordUsername: owner.Username}
	require.NoError(t, e.repo.Create(context.Background(), pin))
	return pin
}

func decodePin(t *testing.T, rec *httptest.ResponseRecorder) models.Pin {
	t.Helper()
	var pin models.Pin
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pin))
	return pin
}

func countPins(t *testing.T, repo storage.PinRepository) int {
	t.Helper()
	pins, err := repo.List(context.Background())
	require.NoError(t, err)
	return len(pins)
}

func TestCreatePin_OwnerFromSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/pins", bob,
		`{"title":"Iron Mine","category":"resource","lat":12.5,"lng":-3.2,"discord_user_id":"999","discord_username":"Mallory"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pin := decodePin(t, rec)
	assert.NotZero(t, pin.ID)
	assert.Equal(t, "100", pin.DiscordUserID)
	assert.Equal(t, "Bob", pin.DiscordUsername)
	assert.Equal(t, "Iron Mine", pin.Title)
	assert.Equal(t, "", pin.Description)
	assert.Equal(t, 12.5, pin.Lat)
	assert.Equal(t, -3.2, pin.Lng)
	assert.False(t, pin.CreatedAt.IsZero())
}

func TestCreateThenList_RoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/pins", bob,
		`{"title":"Guild Hall","description":"meet here","category":"base","lat":"40.25","lng":7}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodePin(t, rec)
	assert.Equal(t, 40.25, created.Lat, "string coordinates are coerced")

	list := env.do(t, http.MethodGet, "/pins", nil, "")
	require.Equal(t, http.StatusOK, list.Code)

	var pins []models.Pin
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &pins))
	require.Len(t, pins, 1)
	got := pins[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Description, got.Description)
	assert.Equal(t, created.Category, got.Category)
	assert.Equal(t, created.Lat, got.Lat)
	assert.Equal(t, created.Lng, got.Lng)
	assert.Equal(t, created.DiscordUserID, got.DiscordUserID)
	assert.Equal(t, created.DiscordUsername, got.DiscordUsername)
}

func TestListPins_EmptyArrayAndNoAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/pins", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreatePin_Validation(t *testing.T) {
	env := newTestEnv(t)

	bodies := map[string]string{
		"missing title":    `{"category":"resource","lat":1,"lng":2}`,
		"empty title":      `{"title":"","category":"resource","lat":1,"lng":2}`,
		"missing category": `{"title":"Mine","lat":1,"lng":2}`,
		"missing lat":      `{"title":"Mine","category":"resource","lng":2}`,
		"missing lng":      `{"title":"Mine","category":"resource","lat":1}`,
		"null lat":         `{"title":"Mine","category":"resource","lat":null,"lng":2}`,
		"bad coordinate":   `{"title":"Mine","category":"resource","lat":"north","lng":2}`,
		"infinite lat":     `{"title":"Mine","category":"resource","lat":"Inf","lng":2}`,
		"negative inf lng": `{"title":"Mine","category":"resource","lat":1,"lng":"-Infinity"}`,
		"nan lat":          `{"title":"Mine","category":"resource","lat":"NaN","lng":2}`,
		"not json":         `title=Mine`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/pins", bob, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
	assert.Zero(t, countPins(t, env.repo))

	rec := env.do(t, http.MethodGet, "/pins", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUpdatePin_NonFiniteCoordinate(t *testing.T) {
	env := newTestEnv(t)
	pin := env.seed(t, bob)

	for _, body := range []string{`{"lat":"Inf"}`, `{"lng":"NaN"}`} {
		rec := env.do(t, http.MethodPut, "/pins/"+itoa(pin.ID), bob, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := env.do(t, http.MethodGet, "/pins", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pins []models.Pin
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pins))
	require.Len(t, pins, 1)
	assert.Equal(t, 12.5, pins[0].Lat)
	assert.Equal(t, -3.2, pins[0].Lng)
}

func TestCreatePin_ZeroCoordinatesAllowed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/pins", bob, `{"title":"Origin","category":"marker","lat":0,"lng":0}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCreatePin_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/pins", nil, `{"title":"Mine","category":"resource","lat":1,"lng":2}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, countPins(t, env.repo))
}

func TestUpdatePin_PartialByOwner(t *testing.T) {
	env := newTestEnv(t)
	pin := env.seed(t, bob)

	rec := env.do(t, http.MethodPut, "/pins/"+itoa(pin.ID), bob, `{"title":"Gold Mine","discord_user_id":"300"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodePin(t, rec)
	assert.Equal(t, "Gold Mine", got.Title)
	assert.Equal(t, "resource", got.Category)
	assert.Equal(t, 12.5, got.Lat)
	assert.Equal(t, -3.2, got.Lng)
	assert.Equal(t, "100", got.DiscordUserID)
}

func TestUpdatePin_NotOwner(t *testing.T) {
	env := newTestEnv(t)
	pin := env.seed(t, bob)

	for _, who := range []*sessions.Identity{eve, admin} {
		rec := env.do(t, http.MethodPut, "/pins/"+itoa(pin.ID), who, `{"title":"Hijacked"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code, who.Username)
	}

	stored, err := env.repo.Get(context.Background(), pin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Iron Mine", stored.Title)
}

func TestUpdatePin_NotFoundAndEmptyTitle(t *testing.T) {
	env := newTestEnv(t)
	pin := env.seed(t, bob)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPut, "/pins/9999", bob, `{"title":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPut, "/pins/abc", bob, `{"title":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/pins/"+itoa(pin.ID), bob, `{"title":""}`).Code)
}

func TestDeletePin_AdminOverride(t *testing.T) {
	env := newTestEnv(t)
	pin := env.seed(t, bob)

	rec := env.do(t, http.MethodDelete, "/pins/"+itoa(pin.ID), eve, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, countPins(t, env.repo))

	rec = env.do(t, http.MethodDelete, "/pins/"+itoa(pin.ID), admin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Pin deleted successfully"}`, rec.Body.String())
	assert.Zero(t, countPins(t, env.repo))
}

func TestDeletePin_Owner(t *testing.T) {
	env := newTestEnv(t)
	pin := env.seed(t, bob)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/pins/"+itoa(pin.ID), bob, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/pins/"+itoa(pin.ID), bob, "").Code)
}

func TestIsAdmin_CaseInsensitive(t *testing.T) {
	svc := NewService(nil, []string{"RandMiester"})

	assert.True(t, svc.IsAdmin(&sessions.Identity{Username: "randmiester"}))
	assert.True(t, svc.IsAdmin(&sessions.Identity{Username: "RANDMIESTER"}))
	assert.False(t, svc.IsAdmin(&sessions.Identity{Username: "Eve"}))
	assert.False(t, svc.IsAdmin(nil))
}

func TestService_RequiresIdentity(t *testing.T) {
	svc := NewService(nil, nil)
	lat, lng := Coordinate(1), Coordinate(2)

	_, err := svc.Create(context.Background(), nil, CreatePinRequest{Title: "a", Category: "b", Lat: &lat, Lng: &lng})
	assert.Equal(t, routes.KindAuthentication, routes.AsError(err).Kind)

	err = svc.Delete(context.Background(), nil, 1)
	assert.Equal(t, routes.KindAuthentication, routes.AsError(err).Kind)
}

type failingRepo struct {
	storage.PinRepository
}

func (failingRepo) Create(context.Context, *models.Pin) error {
	return errors.New("database is locked")
}

func TestService_PersistenceFailure(t *testing.T) {
	svc := NewService(failingRepo{}, nil)
	lat, lng := Coordinate(1), Coordinate(2)

	_, err := svc.Create(context.Background(), bob, CreatePinRequest{Title: "a", Category: "b", Lat: &lat, Lng: &lng})
	e := routes.AsError(err)
	assert.Equal(t, routes.KindPersistence, e.Kind)
	assert.Equal(t, http.StatusInternalServerError, e.Kind.Status())
}

func TestCoordinate_UnmarshalJSON(t *testing.T) {
	var c Coordinate
	require.NoError(t, json.Unmarshal([]byte(`-3.2`), &c))
	assert.Equal(t, Coordinate(-3.2), c)
	require.NoError(t, json.Unmarshal([]byte(`"12.5"`), &c))
	assert.Equal(t, Coordinate(12.5), c)
	assert.Error(t, json.Unmarshal([]byte(`"east"`), &c))
	for _, raw := range []string{`"Inf"`, `"-Inf"`, `"Infinity"`, `"NaN"`, `"+Inf"`} {
		assert.Error(t, json.Unmarshal([]byte(raw), &c), raw)
	}
	assert.Equal(t, Coordinate(12.5), c)
	assert.Error(t, json.Unmarshal([]byte(`true`), &c))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
