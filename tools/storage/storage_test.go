package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileState(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name        string
		filename    string
		data        []byte
		create      bool
		expectError bool
	}{
		{name: "yaml price table", filename: "prices.yaml", data: []byte("tofu:\n  price_per_gram: 0.01\n"), create: true},
		{name: "json recipes", filename: "recipes.json", data: []byte(`[{"name": "bibimbap"}]`), create: true},
		{name: "missing file", filename: "missing.json", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(tmpDir, tt.filename)
			if tt.create {
				require.NoError(t, os.WriteFile(filePath, tt.data, 0644))
			}

			loaded, err := NewFileState(filePath).Load(context.Background())
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.data, loaded)
		})
	}
}

type mockS3 struct {
	body  string
	err   error
	input *s3.GetObjectInput
}

func (m *mockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.input = in
	if m.err != nil {
		return nil, m.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(m.body))}, nil
}

func TestS3State(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		client := &mockS3{body: "rice:\n  price_per_gram: 0.004\n"}
		b, err := NewS3State(client, "artifacts", "prices.yaml").Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "rice:\n  price_per_gram: 0.004\n", string(b))
		assert.Equal(t, "artifacts", aws.ToString(client.input.Bucket))
		assert.Equal(t, "prices.yaml", aws.ToString(client.input.Key))
	})

	t.Run("error", func(t *testing.T) {
		_, err := NewS3State(&mockS3{err: errors.New("access denied")}, "artifacts", "menu.yaml").Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "s3://artifacts/menu.yaml")
	})
}

func TestLoadPriceTable(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    PriceTable
		wantErr bool
	}{
		{
			name: "yaml",
			data: "tofu:\n  price_per_gram: 0.012\nrice:\n  price_per_gram: 0.004\n  source_url: https://mart.example/rice\n",
			want: PriceTable{
				"tofu": {PricePerGram: 0.012},
				"rice": {PricePerGram: 0.004, SourceURL: "https://mart.example/rice"},
			},
		},
		{
			name: "json",
			data: `{"egg": {"price_per_gram": 0.02}}`,
			want: PriceTable{"egg": {PricePerGram: 0.02}},
		},
		{name: "empty", data: "", wantErr: true},
		{name: "wrong shape", data: "- a\n- b\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadPriceTable(context.Background(), NewTestState([]byte(tt.data)))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := LoadPriceTable(context.Background(), NewTestStateWithError())
	assert.ErrorContains(t, err, "read price table")
}

func TestLoadRecipes(t *testing.T) {
	data := `
- name: Kimchi stew
  url: https://recipes.example/kimchi-stew
  ingredients: [kimchi, pork, tofu]
  cooking_time: 30
  calories: 450
  difficulty: easy
  meal_types: [lunch, dinner]
- name: Rolled omelette
  ingredients: [egg, green onion]
  cooking_time: 10
`
	recipes, err := LoadRecipes(context.Background(), NewTestState([]byte(data)))
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, "Kimchi stew", recipes[0].Name)
	assert.Equal(t, []string{"kimchi", "pork", "tofu"}, recipes[0].Ingredients)
	assert.Equal(t, 30, recipes[0].CookingTimeMinutes)
	assert.InDelta(t, 450, recipes[0].Calories, 0.001)
	assert.Equal(t, []string{"lunch", "dinner"}, recipes[0].MealTypes)
	assert.Equal(t, 10, recipes[1].CookingTimeMinutes)
}

func TestLoadMenu(t *testing.T) {
	valid := `
menu_name: Rice porridge (fallback)
ingredients:
  - {name: rice, amount: 100g}
calories: 400
carb_g: 80
protein_g: 8
fat_g: 3
sodium_mg: 300
sugar_g: 1
cooking_time_minutes: 15
estimated_cost: 1500
recipe_steps: [Simmer the rice in water.]
`
	menu, err := LoadMenu(context.Background(), NewTestState([]byte(valid)))
	require.NoError(t, err)
	assert.Equal(t, "Rice porridge (fallback)", menu.MenuName)
	assert.Equal(t, "100g", menu.Ingredients[0].Amount)
	assert.Equal(t, 1500, menu.EstimatedCost)

	_, err = LoadMenu(context.Background(), NewTestState([]byte("menu_name: half\ncalories: 100\n")))
	assert.ErrorContains(t, err, "invalid menu")
}

func TestPriceCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prices")
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	c := NewPriceCache(dir, 2)
	c.now = func() time.Time { return day }

	_, ok := c.Get("tofu")
	assert.False(t, ok)

	require.NoError(t, c.Put("tofu", PriceEntry{PricePerGram: 0.012, SearchDate: "2026-03-10"}))
	require.NoError(t, c.Put("rice", PriceEntry{PricePerGram: 0.004}))
	assert.FileExists(t, filepath.Join(dir, "prices_2026-03-10.json"))

	got, ok := c.Get("tofu")
	require.True(t, ok)
	assert.InDelta(t, 0.012, got.PricePerGram, 1e-9)

	c.now = func() time.Time { return day.AddDate(0, 0, 1) }
	_, ok = c.Get("rice")
	assert.True(t, ok, "yesterday is inside a two day window")

	c.now = func() time.Time { return day.AddDate(0, 0, 2) }
	_, ok = c.Get("rice")
	assert.False(t, ok)
}

func TestPriceCache_CorruptFileStartsOver(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	c := NewPriceCache(dir, 1)
	c.now = func() time.Time { return day }

	require.NoError(t, os.WriteFile(filepath.Join(dir, "prices_2026-03-10.json"), []byte("{not json"), 0644))
	_, ok := c.Get("tofu")
	assert.False(t, ok)

	require.NoError(t, c.Put("tofu", PriceEntry{PricePerGram: 0.01}))
	_, ok = c.Get("tofu")
	assert.True(t, ok)
}
