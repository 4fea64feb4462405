package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	monetizationdomain "github.com/smallbiznis/grantgate/internal/monetization/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMonetizationHolderDefaultsToFree(t *testing.T) {
	holder, err := newMonetizationHolder(zap.NewNop(), []string{t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, monetizationdomain.ModelFree, holder.Get().MonetizationModel)
}

func TestMonetizationHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	writeMonetizationFile(t, dir, "monetization:\n  model: usage_based\n")

	holder, err := newMonetizationHolder(zap.NewNop(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, monetizationdomain.ModelUsageBased, holder.Get().MonetizationModel)
}

func TestMonetizationHolderRejectsUnknownModelInFile(t *testing.T) {
	dir := t.TempDir()
	writeMonetizationFile(t, dir, "monetization:\n  model: lifetime\n")

	_, err := newMonetizationHolder(zap.NewNop(), []string{dir})
	assert.ErrorIs(t, err, monetizationdomain.ErrUnknownModel)
}

func TestMonetizationHolderSetModelPersists(t *testing.T) {
	dir := t.TempDir()
	path := writeMonetizationFile(t, dir, "monetization:\n  model: Free\n")

	holder, err := newMonetizationHolder(zap.NewNop(), []string{dir})
	require.NoError(t, err)

	require.NoError(t, holder.SetModel(context.Background(), monetizationdomain.ModelSubscription))
	assert.Equal(t, monetizationdomain.ModelSubscription, holder.Get().MonetizationModel)

	check := viper.New()
	check.SetConfigFile(path)
	require.NoError(t, check.ReadInConfig())
	assert.Equal(t, "Subscription", check.GetString(monetizationModelKey))
}

func TestMonetizationHolderSetModelRejectsUnknown(t *testing.T) {
	holder := NewStaticMonetizationHolder(monetizationdomain.Default())

	err := holder.SetModel(context.Background(), monetizationdomain.Model("Lifetime"))
	assert.ErrorIs(t, err, monetizationdomain.ErrUnknownModel)
	assert.Equal(t, monetizationdomain.ModelFree, holder.Get().MonetizationModel)
}

func TestStaticHolderSetModelInMemory(t *testing.T) {
	holder := NewStaticMonetizationHolder(monetizationdomain.Default())

	require.NoError(t, holder.SetModel(context.Background(), monetizationdomain.ModelPayPerFeature))
	assert.Equal(t, monetizationdomain.ModelPayPerFeature, holder.Get().MonetizationModel)
}

func writeMonetizationFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "monetization.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
