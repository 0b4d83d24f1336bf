package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/platebook/backend/internal/api"
	"github.com/platebook/backend/internal/models"
	"github.com/platebook/backend/internal/router"
	"github.com/platebook/backend/internal/service"
	"github.com/platebook/backend/internal/testhelpers"
)

const testBaseURL = "http://platebook.test"

type testEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	auth    *service.AuthService
	recipes *service.RecipeService
	rel     *service.RelationshipService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDatabase(t)
	images := &testhelpers.MemoryImageStore{}

	auth := service.NewAuthService(db, "test-secret", &testhelpers.MemoryBlacklist{})
	users := service.NewUserService(db, images, 1<<20)
	recipes := service.NewRecipeService(db, images, 1<<20)
	rel := service.NewRelationshipService(db)
	shopping := service.NewShoppingListService(db)
	ingredients := service.NewIngredientService(db)

	log := logrus.New()
	log.SetOutput(io.Discard)

	engine := router.Setup(
		log,
		api.NewAuthHandler(auth),
		api.NewUserHandler(users, auth, rel),
		api.NewRecipeHandler(recipes, rel, shopping, auth, testBaseURL),
		api.NewIngredientHandler(ingredients),
	)

	return &testEnv{
		router:  engine,
		db:      db,
		auth:    auth,
		recipes: recipes,
		rel:     rel,
	}
}

// do performs a request against the in-memory router. A non-empty
// token is sent as a bearer Authorization header.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login creates a fixture user and returns it with a valid token.
func (e *testEnv) login(t *testing.T, username string) (*models.User, string) {
	t.Helper()

	user := testhelpers.CreateUser(t, e.db, username)
	token, err := e.auth.Login(context.Background(), user.Email, testhelpers.TestPassword)
	if err != nil {
		t.Fatalf("failed to log in %s: %v", username, err)
	}
	return user, token
}

// seedRecipe inserts a recipe with one ingredient line directly.
func (e *testEnv) seedRecipe(t *testing.T, author *models.User, name string, lines ...models.RecipeIngredient) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        "text",
		ImageURL:    "https://images.test/recipes/seed",
		CookingTime: 15,
	}
	if err := e.db.Create(recipe).Error; err != nil {
		t.Fatalf("failed to seed recipe: %v", err)
	}
	for i := range lines {
		lines[i].RecipeID = recipe.ID
		if err := e.db.Create(&lines[i]).Error; err != nil {
			t.Fatalf("failed to seed recipe line: %v", err)
		}
	}
	return recipe
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("got status %d, want %d, body: %s", w.Code, want, w.Body.String())
	}
}
