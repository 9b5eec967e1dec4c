package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hakoniwa-games/questforge/api/rest"
	"github.com/hakoniwa-games/questforge/config"
	"github.com/hakoniwa-games/questforge/events"
	"github.com/hakoniwa-games/questforge/game/save"
	"github.com/hakoniwa-games/questforge/game/session"
	mw "github.com/hakoniwa-games/questforge/middleware"
	"github.com/hakoniwa-games/questforge/resource"
	"github.com/hakoniwa-games/questforge/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testSec = config.SecurityConfig{
	JWTSecret: "test-secret",
	JWTTTL:    72 * time.Hour,
}

var testGame = config.GameConfig{
	InventoryCapacity: 10,
}

// testCatalog seeds the resource loader the way data files would.
func testCatalog(t *testing.T) *resource.Loader {
	t.Helper()
	res := resource.NewLoader(t.TempDir())
	writeJSON := func(name, data string) {
		require.NoError(t, writeFile(res.DataPath, name, data))
	}
	writeJSON("items.json", `[
	  {"id":"iron_sword","name":"Iron Sword","category":"weapon","rarity":"common",
	   "maxStack":1,"bonus":{"atk":5}},
	  {"id":"leather_cap","name":"Leather Cap","category":"armor","rarity":"common",
	   "maxStack":1,"bonus":{"def":2}},
	  {"id":"herb","name":"Healing Herb","category":"consumable","rarity":"common",
	   "maxStack":99,"consumable":true,"bonus":{"maxHp":25}},
	  {"id":"throwing_knife","name":"Throwing Knife","category":"weapon","rarity":"common",
	   "maxStack":10,"bonus":{"atk":2}}
	]`)
	writeJSON("enemies.json", `[]`)
	require.NoError(t, writeFile(filepath.Join(res.DataPath, "dialogues"), "elder.json", `{
	  "id": "elder",
	  "start": "greet",
	  "nodes": [
	    {"id":"greet","speaker":"Elder","lines":["Welcome, traveler."],
	     "choices":[
	       {"label":"Who are you?","next":"who","available":true},
	       {"label":"Secret path","next":"secret","available":false},
	       {"label":"Goodbye","next":"","available":true}
	     ]},
	    {"id":"who","speaker":"Elder","lines":["I keep this village."],"next":"farewell"},
	    {"id":"farewell","speaker":"Elder","lines":["Safe travels."],"end":true}
	  ]
	}`))
	require.NoError(t, res.Load())
	return res
}

// server bundles everything a REST test needs.
type server struct {
	r     *gin.Engine
	res   *resource.Loader
	reg   *session.Registry
	hub   *events.Hub
	coord *save.Coordinator
}

func newTestServer(t *testing.T) *server {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	hub := events.NewHub()
	res := testCatalog(t)
	reg := session.NewRegistry(logger)

	store, err := save.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	coord := save.NewCoordinator(store, c, hub, logger)

	authH := rest.NewAuthHandler(db, c, testSec)
	charH := rest.NewCharacterHandler(db, reg, res, c, hub, coord, testGame)
	invH := rest.NewInventoryHandler(charH, res, hub)
	dlgH := rest.NewDialogueHandler(charH, res, hub)
	saveH := rest.NewSaveHandler(coord)
	lbH := rest.NewLeaderboardHandler(db, c, logger)

	r := gin.New()
	r.POST("/api/auth/login", authH.Login)
	r.POST("/api/auth/logout", mw.Auth(testSec, c), authH.Logout)

	api := r.Group("/api", mw.Auth(testSec, c))
	api.GET("/characters", charH.List)
	api.POST("/characters", charH.Create)
	api.GET("/characters/:id", charH.Get)
	api.DELETE("/characters/:id", charH.Delete)
	api.POST("/characters/:id/activate", charH.Activate)
	api.POST("/characters/:id/deactivate", charH.Deactivate)
	api.GET("/characters/:id/stats", charH.Stats)
	api.POST("/characters/:id/experience", charH.GainExperience)
	api.POST("/characters/:id/damage", charH.TakeDamage)
	api.POST("/characters/:id/heal", charH.Heal)
	api.POST("/characters/:id/scene", charH.ChangeScene)

	api.GET("/characters/:id/inventory", invH.List)
	api.POST("/characters/:id/inventory/add", invH.Add)
	api.POST("/characters/:id/inventory/remove", invH.Remove)
	api.POST("/characters/:id/inventory/use", invH.Use)
	api.POST("/characters/:id/equipment/equip", invH.Equip)
	api.POST("/characters/:id/equipment/unequip", invH.Unequip)

	api.POST("/characters/:id/dialogue/start", dlgH.Start)
	api.GET("/characters/:id/dialogue", dlgH.Current)
	api.POST("/characters/:id/dialogue/advance", dlgH.Advance)
	api.POST("/characters/:id/dialogue/choose", dlgH.Choose)
	api.POST("/characters/:id/dialogue/skip", dlgH.Skip)

	api.GET("/saves", saveH.List)
	api.GET("/saves/:slot", saveH.Info)
	api.POST("/saves/:slot", saveH.Save)
	api.POST("/saves/:slot/load", saveH.Load)

	api.GET("/leaderboard", lbH.Top)

	return &server{r: r, res: res, reg: reg, hub: hub, coord: coord}
}

func postJSON(r *gin.Engine, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getJSON(r *gin.Engine, path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func deleteJSON(r *gin.Engine, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodDelete, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// login registers/logs in and returns the bearer token.
func login(t *testing.T, s *server, username string) string {
	t.Helper()
	w := postJSON(s.r, "/api/auth/login", map[string]string{
		"username": username,
		"password": "pass1234",
	})
	require.Equal(t, http.StatusOK, w.Code)
	return decode(t, w)["token"].(string)
}

// activeCharacter logs in, creates a character, activates it, and returns
// (token, character id as string).
func activeCharacter(t *testing.T, s *server, username, charName string) (string, string) {
	t.Helper()
	token := login(t, s, username)

	w := postJSON(s.r, "/api/characters", map[string]string{"name": charName},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusCreated, w.Code)
	id := jsonNumber(decode(t, w)["id"])

	w = postJSON(s.r, "/api/characters/"+id+"/activate", nil,
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	return token, id
}

// jsonNumber renders a decoded JSON number as its integer string.
func jsonNumber(v interface{}) string {
	b, _ := json.Marshal(int64(v.(float64)))
	return string(b)
}

func writeFile(dir, name, data string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644)
}
