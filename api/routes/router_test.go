package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/angelmondragon/shopcart-backend/api/controllers"
	"github.com/angelmondragon/shopcart-backend/internal/auth"
	"github.com/angelmondragon/shopcart-backend/internal/cart"
	"github.com/angelmondragon/shopcart-backend/internal/catalog"
	pkgAuth "github.com/angelmondragon/shopcart-backend/pkg/auth"
	"github.com/angelmondragon/shopcart-backend/pkg/config"
	"github.com/angelmondragon/shopcart-backend/pkg/lock"
	"github.com/angelmondragon/shopcart-backend/pkg/logger"
	"github.com/angelmondragon/shopcart-backend/pkg/metrics"
)

type memCatalog struct {
	items []catalog.Item
}

func (m *memCatalog) List(_ context.Context, f catalog.ListFilter) ([]catalog.Item, error) {
	out := []catalog.Item{}
	for _, item := range m.items {
		if f.Category != nil && !strings.EqualFold(item.Category, *f.Category) {
			continue
		}
		if f.MinPrice != nil && item.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && item.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if f.Query != nil {
			q := strings.ToLower(*f.Query)
			if !strings.Contains(strings.ToLower(item.Name), q) && !strings.Contains(strings.ToLower(item.Description), q) {
				continue
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (m *memCatalog) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]catalog.Item, error) {
	out := make(map[primitive.ObjectID]catalog.Item, len(ids))
	for _, item := range m.items {
		for _, id := range ids {
			if item.ID == id {
				out[id] = item
			}
		}
	}
	return out, nil
}

func (m *memCatalog) idOf(name string) string {
	for _, item := range m.items {
		if item.Name == name {
			return item.ID.Hex()
		}
	}
	return ""
}

type memCarts struct {
	mu    sync.Mutex
	carts map[string]cart.Cart
	saves int
}

func (m *memCarts) FindByUser(_ context.Context, userID string) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	c.Items = append([]cart.LineItem(nil), c.Items...)
	return &c, nil
}

func (m *memCarts) Save(_ context.Context, c *cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, exists := m.carts[c.UserID]
	if c.ID.IsZero() {
		if exists {
			return cart.ErrVersionConflict
		}
		c.ID = primitive.NewObjectID()
		c.CreatedAt = time.Now().UTC()
	} else if !exists || stored.Version != c.Version {
		return cart.ErrVersionConflict
	}
	c.Version++
	c.UpdatedAt = time.Now().UTC()
	saved := *c
	saved.Items = append([]cart.LineItem(nil), c.Items...)
	m.carts[c.UserID] = saved
	m.saves++
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, auth.RegisterRequest) (*auth.RegisterResponse, error) {
	return &auth.RegisterResponse{Token: "t"}, nil
}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{Token: "t"}, nil
}

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type testServer struct {
	handler http.Handler
	catalog *memCatalog
	carts   *memCarts
	cfg     *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		App:  config.AppConfig{Env: config.AppEnvDev},
		JWT:  config.JWTConfig{Secret: "router-secret", ExpirationMinutes: 5},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	reg := prometheus.NewRegistry()

	seed := catalog.SeedItems()
	for i := range seed {
		seed[i].ID = primitive.NewObjectID()
	}
	items := &memCatalog{items: seed}
	carts := &memCarts{carts: map[string]cart.Cart{}}

	catalogService, err := catalog.NewService(items)
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}
	cartService, err := cart.NewService(carts, items, lock.NewLocal(time.Second), metrics.NewCartMetrics(reg), logg)
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}

	handler := NewRouter(
		cfg,
		logg,
		reg,
		metrics.NewHTTPMetrics(reg),
		[]controllers.Dependency{{Name: "mongo", Pinger: stubPinger{}}},
		nil,
		stubAuthService{},
		catalogService,
		cartService,
	)
	return &testServer{handler: handler, catalog: items, carts: carts, cfg: cfg}
}

func (s *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := pkgAuth.MintAccessToken(s.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: userID})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	s.handler.ServeHTTP(resp, req)
	return resp
}

func TestRootAndHealth(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/", "", "")
	if resp.Code != http.StatusOK || !strings.HasPrefix(resp.Body.String(), "Backend running") {
		t.Fatalf("unexpected root response %d %q", resp.Code, resp.Body.String())
	}
	if resp := srv.do(t, http.MethodGet, "/health/live", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected live 200 got %d", resp.Code)
	}
	if resp := srv.do(t, http.MethodGet, "/health/ready", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected ready 200 got %d", resp.Code)
	}
}

func TestCartRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/cart", ""},
		{http.MethodPost, "/cart/add", `{"itemId":"` + srv.catalog.idOf("Laptop") + `"}`},
		{http.MethodPatch, "/cart/update/" + srv.catalog.idOf("Laptop"), `{"quantity":2}`},
		{http.MethodDelete, "/cart/remove/" + srv.catalog.idOf("Laptop"), ""},
	}
	for _, tc := range cases {
		resp := srv.do(t, tc.method, tc.path, "", tc.body)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, resp.Code)
		}
		if !strings.Contains(resp.Body.String(), "No token provided") {
			t.Fatalf("%s %s: unexpected body %s", tc.method, tc.path, resp.Body.String())
		}
	}
	if srv.carts.saves != 0 || len(srv.carts.carts) != 0 {
		t.Fatalf("cart state changed without auth")
	}

	resp := srv.do(t, http.MethodGet, "/cart", "not-a-jwt", "")
	if resp.Code != http.StatusUnauthorized || !strings.Contains(resp.Body.String(), "Invalid token") {
		t.Fatalf("expected invalid token 401, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestAddTwiceThenGetCart(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, uuid.NewString())
	shirt := srv.catalog.idOf("T-Shirt")

	if resp := srv.do(t, http.MethodPost, "/cart/add", token, `{"itemId":"`+shirt+`","quantity":1}`); resp.Code != http.StatusOK {
		t.Fatalf("first add: %d %s", resp.Code, resp.Body.String())
	}
	if resp := srv.do(t, http.MethodPost, "/cart/add", token, `{"itemId":"`+shirt+`","quantity":2}`); resp.Code != http.StatusOK {
		t.Fatalf("second add: %d %s", resp.Code, resp.Body.String())
	}

	resp := srv.do(t, http.MethodGet, "/cart", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("get cart: %d %s", resp.Code, resp.Body.String())
	}
	var view cart.PricedCartDTO
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected one line, got %+v", view.Items)
	}
	line := view.Items[0]
	if line.Name != "T-Shirt" || line.Quantity != 3 || line.Total != 1500 {
		t.Fatalf("unexpected line %+v", line)
	}
}

func TestGetCartWithoutCartIsEmpty(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.NewString()

	resp := srv.do(t, http.MethodGet, "/cart", srv.token(t, userID), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var view struct {
		User  string          `json:"user"`
		Items json.RawMessage `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if view.User != userID || string(view.Items) != "[]" {
		t.Fatalf("unexpected empty cart %+v", view)
	}
}

func TestUpdateItemNeverAddedIsNotFound(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, uuid.NewString())

	if resp := srv.do(t, http.MethodPost, "/cart/add", token, `{"itemId":"`+srv.catalog.idOf("Shoes")+`"}`); resp.Code != http.StatusOK {
		t.Fatalf("add: %d %s", resp.Code, resp.Body.String())
	}

	resp := srv.do(t, http.MethodPatch, "/cart/update/"+srv.catalog.idOf("Watch"), token, `{"quantity":2}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "Item not in cart") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestItemsFilterComposition(t *testing.T) {
	srv := newTestServer(t)

	names := func(resp *httptest.ResponseRecorder) []string {
		t.Helper()
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
		var items []catalog.ItemDTO
		if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
			t.Fatalf("decode items: %v", err)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, item.Name)
		}
		sort.Strings(out)
		return out
	}

	got := names(srv.do(t, http.MethodGet, "/items?category=electronics", "", ""))
	if strings.Join(got, ",") != "Laptop,Watch" {
		t.Fatalf("unexpected category results %v", got)
	}
	got = names(srv.do(t, http.MethodGet, "/items?category=electronics&minPrice=1001", "", ""))
	if strings.Join(got, ",") != "Laptop" {
		t.Fatalf("unexpected price results %v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodGet, "/items", "", "")

	resp := srv.do(t, http.MethodGet, "/metrics", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `http_requests_total{method="GET",route="/items",status="200"} 1`) {
		t.Fatalf("expected items request metric, got %s", resp.Body.String())
	}
}
