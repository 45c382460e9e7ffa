package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func indexOptions(t *testing.T, m mongo.IndexModel) *options.IndexOptions {
	t.Helper()
	o := &options.IndexOptions{}
	if m.Options == nil {
		return o
	}
	for _, set := range m.Options.List() {
		require.NoError(t, set(o))
	}
	return o
}

func findIndex(t *testing.T, collection, field string) *options.IndexOptions {
	t.Helper()
	for _, m := range indexes[collection] {
		keys, ok := m.Keys.(bson.D)
		require.True(t, ok)
		for _, k := range keys {
			if k.Key == field {
				return indexOptions(t, m)
			}
		}
	}
	t.Fatalf("no index on %s.%s", collection, field)
	return nil
}

func TestTokensExpire(t *testing.T) {
	for _, c := range []string{RefreshTokensCollection, PasswordResetsCollection} {
		o := findIndex(t, c, "expiresAt")
		require.NotNil(t, o.ExpireAfterSeconds, c)
		assert.EqualValues(t, 0, *o.ExpireAfterSeconds, c)
	}
}

func TestSoftDeletedSlugsAreFree(t *testing.T) {
	for _, c := range []string{TagsCollection, MacrosCollection, PagesCollection, BlogsCollection} {
		o := findIndex(t, c, "slug")
		require.NotNil(t, o.Unique, c)
		assert.True(t, *o.Unique, c)
		assert.Equal(t, bson.M{"isDeleted": false}, o.PartialFilterExpression, c)
	}

	// categories are hard-deleted
	o := findIndex(t, CategoriesCollection, "slug")
	assert.Nil(t, o.PartialFilterExpression)
}
