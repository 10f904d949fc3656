package cfg

import (
	"testing"

	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/pkg/e"
	"github.com/DRSN-tech/category-tree/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTreeCfg_Defaults(t *testing.T) {
	tree, err := loadTreeCfg(logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, domain.LocaleEN, tree.DefaultLocale)
	assert.Equal(t, 20, tree.SearchDefaultLimit)
	assert.Equal(t, 100, tree.SearchMaxLimit)
	assert.False(t, tree.StrictParent)
}

func TestLoadTreeCfg_FromEnv(t *testing.T) {
	t.Setenv("DEFAULT_LOCALE", "ar")
	t.Setenv("SEARCH_DEFAULT_LIMIT", "5")
	t.Setenv("SEARCH_MAX_LIMIT", "50")
	t.Setenv("STRICT_PARENT", "true")

	tree, err := loadTreeCfg(logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, domain.LocaleAR, tree.DefaultLocale)
	assert.Equal(t, 5, tree.SearchDefaultLimit)
	assert.Equal(t, 50, tree.SearchMaxLimit)
	assert.True(t, tree.StrictParent)
}

func TestLoadTreeCfg_Rejects(t *testing.T) {
	t.Run("unknown locale", func(t *testing.T) {
		t.Setenv("DEFAULT_LOCALE", "fr")
		_, err := loadTreeCfg(logger.Nop())
		assert.ErrorIs(t, err, e.ErrInvalidLocale)
	})

	t.Run("max below default", func(t *testing.T) {
		t.Setenv("SEARCH_DEFAULT_LIMIT", "30")
		t.Setenv("SEARCH_MAX_LIMIT", "10")
		_, err := loadTreeCfg(logger.Nop())
		assert.ErrorIs(t, err, e.ErrIncorrectEnvVariable)
	})
}

func TestPGDBCfg_DSNEscapesCredentials(t *testing.T) {
	c := &PGDBCfg{Host: "db", Port: "5432", User: "app", Password: "p@ss/word", DBName: "categories", SSLMode: "disable"}

	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/categories?sslmode=disable", c.DSN())
}

func TestMinIOCfg_Enabled(t *testing.T) {
	assert.False(t, (&MinIOCfg{}).Enabled())
	assert.True(t, (&MinIOCfg{MinioEndpoint: "minio:9000"}).Enabled())
}
