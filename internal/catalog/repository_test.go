package catalog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/angelmondragon/shopcart-backend/pkg/config"
	pkgmongo "github.com/angelmondragon/shopcart-backend/pkg/mongo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func openTestCollection(t *testing.T) *Repository {
	t.Helper()
	uri := os.Getenv("SHOPCART_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SHOPCART_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	dbName := "shopcart_test_" + uuid.NewString()[:8]
	client, err := pkgmongo.New(ctx, config.MongoConfig{URI: uri, Database: dbName, ConnectTimeout: 10 * time.Second}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Database().Drop(ctx)
		_ = client.Close(ctx)
	})

	repo := NewRepository(client.Collection(pkgmongo.CollectionItems))
	require.NoError(t, repo.EnsureIndexes(ctx))
	return repo
}

func TestRepositoryListFiltersAndSorts(t *testing.T) {
	repo := openTestCollection(t)
	ctx := context.Background()

	stored, err := repo.ReplaceAll(ctx, seedItems())
	require.NoError(t, err)
	require.Len(t, stored, 4)

	all, err := repo.List(ctx, NewListFilter(ListParams{}))
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Watch", all[0].Name, "newest first")
	assert.Equal(t, "T-Shirt", all[3].Name)

	electronics, err := repo.List(ctx, NewListFilter(ListParams{Category: "electronics"}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Laptop", "Watch"}, itemNames(electronics))

	pricey, err := repo.List(ctx, NewListFilter(ListParams{Category: "Electronics", MinPrice: "1001"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Laptop"}, itemNames(pricey))

	text, err := repo.List(ctx, NewListFilter(ListParams{Query: "running"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Shoes"}, itemNames(text))

	none, err := repo.List(ctx, NewListFilter(ListParams{Category: "Electron"}))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepositoryFindByIDs(t *testing.T) {
	repo := openTestCollection(t)
	ctx := context.Background()

	stored, err := repo.ReplaceAll(ctx, seedItems())
	require.NoError(t, err)

	missing := primitive.NewObjectID()
	found, err := repo.FindByIDs(ctx, []primitive.ObjectID{stored[0].ID, stored[1].ID, missing})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "T-Shirt", found[stored[0].ID].Name)
	assert.True(t, found[stored[1].ID].Price.Equal(stored[1].Price))

	empty, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func itemNames(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}
