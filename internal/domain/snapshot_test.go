package domain

import (
	"testing"

	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *Snapshot {
	s := NewSnapshot()
	s.Categories["pizza"] = NewCategory("pizza", "Pizzas", "🍕", "Wood fired")
	s.Categories["drinks"] = NewCategory("drinks", "Drinks", "🥤", "")
	s.FileProduct(&Product{ID: 1, Name: "Margherita", BasePrice: d("9.5"), Category: "pizza"})
	s.FileProduct(&Product{ID: 2, Name: "Regina", BasePrice: d("11"), Category: "pizza"})
	s.FileProduct(&Product{ID: 7, Name: "Cola", BasePrice: d("2"), Category: "drinks"})
	s.Admin = AdminConfig{TelegramHandle: "resto", Whitelist: []string{"Alice"}}
	return s
}

func TestSnapshotValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, sampleSnapshot().Validate())
	})

	t.Run("dangling category", func(t *testing.T) {
		s := sampleSnapshot()
		s.Products["desserts"] = []*Product{{ID: 9, Name: "Tiramisu", BasePrice: d("5"), Category: "desserts"}}
		assert.ErrorIs(t, s.Validate(), e.ErrDanglingCategory)
	})

	t.Run("category field mismatch", func(t *testing.T) {
		s := sampleSnapshot()
		s.Products["drinks"][0].Category = "pizza"
		assert.ErrorIs(t, s.Validate(), e.ErrCategoryMismatch)
	})

	t.Run("duplicate ids", func(t *testing.T) {
		s := sampleSnapshot()
		s.FileProduct(&Product{ID: 1, Name: "Water", BasePrice: d("1"), Category: "drinks"})
		assert.ErrorIs(t, s.Validate(), e.ErrDuplicateProductID)
	})

	t.Run("non-positive price", func(t *testing.T) {
		s := sampleSnapshot()
		s.Products["pizza"][0].BasePrice = d("0")
		err := s.Validate()
		assert.ErrorIs(t, err, e.ErrPriceMustBePositive)
		assert.ErrorIs(t, err, e.ErrValidation)
	})

	t.Run("new and promo together", func(t *testing.T) {
		s := sampleSnapshot()
		s.Products["pizza"][0].IsNew = true
		s.Products["pizza"][0].IsPromo = true
		assert.ErrorIs(t, s.Validate(), e.ErrNewAndPromo)
	})

	t.Run("whitelist is a case-insensitive set", func(t *testing.T) {
		s := sampleSnapshot()
		s.Admin.Whitelist = []string{"Alice", "bob", "@alice"}
		err := s.Validate()
		assert.ErrorIs(t, err, e.ErrDuplicateAdmin)
		assert.ErrorIs(t, err, e.ErrValidation)

		s.Admin.Whitelist = []string{"Alice", "bob"}
		assert.NoError(t, s.Validate())
	})

	t.Run("empty list under missing category is tolerated", func(t *testing.T) {
		s := sampleSnapshot()
		s.Products["ghost"] = []*Product{}
		assert.NoError(t, s.Validate())
	})
}

func TestSnapshotNextProductID(t *testing.T) {
	assert.Equal(t, int64(8), sampleSnapshot().NextProductID())
	assert.Equal(t, int64(1), NewSnapshot().NextProductID())
}

func TestSnapshotReplaceProduct(t *testing.T) {
	t.Run("in place", func(t *testing.T) {
		s := sampleSnapshot()
		updated := s.Products["pizza"][0].Clone()
		updated.Name = "Margherita XL"

		require.True(t, s.ReplaceProduct(updated))
		assert.Equal(t, "Margherita XL", s.Products["pizza"][0].Name)
		assert.Len(t, s.Products["pizza"], 2)
	})

	t.Run("moves between categories", func(t *testing.T) {
		s := sampleSnapshot()
		moved := s.Products["pizza"][0].Clone()
		moved.Category = "drinks"

		require.True(t, s.ReplaceProduct(moved))
		assert.Len(t, s.Products["pizza"], 1)
		assert.Equal(t, int64(2), s.Products["pizza"][0].ID)
		assert.Equal(t, int64(1), s.Products["drinks"][1].ID)
		assert.NoError(t, s.Validate())
	})

	t.Run("unknown id", func(t *testing.T) {
		s := sampleSnapshot()
		assert.False(t, s.ReplaceProduct(&Product{ID: 99, Category: "pizza"}))
	})
}

func TestSnapshotRenameCategory(t *testing.T) {
	s := sampleSnapshot()
	before := *s.Categories["pizza"]

	require.NoError(t, s.RenameCategory("pizza", "pizzas"))

	_, oldExists := s.Categories["pizza"]
	assert.False(t, oldExists)
	_, oldList := s.Products["pizza"]
	assert.False(t, oldList)

	renamed := s.Categories["pizzas"]
	require.NotNil(t, renamed)
	assert.Equal(t, "pizzas", renamed.ID)
	assert.Equal(t, before.Name, renamed.Name)
	assert.Equal(t, before.Emoji, renamed.Emoji)
	assert.Equal(t, before.Description, renamed.Description)

	require.Len(t, s.Products["pizzas"], 2)
	for _, p := range s.AllProducts() {
		assert.NotEqual(t, "pizza", p.Category)
	}
	assert.NoError(t, s.Validate())

	t.Run("target exists", func(t *testing.T) {
		assert.ErrorIs(t, s.RenameCategory("pizzas", "drinks"), e.ErrCategoryExists)
	})

	t.Run("source missing", func(t *testing.T) {
		assert.ErrorIs(t, s.RenameCategory("nope", "other"), e.ErrCategoryNotFound)
	})
}

func TestSnapshotDeleteCategory(t *testing.T) {
	s := sampleSnapshot()

	removed, err := s.DeleteCategory("pizza")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	for _, p := range s.AllProducts() {
		assert.NotEqual(t, "pizza", p.Category)
	}
	_, ok := s.FindProduct(1)
	assert.False(t, ok)
	assert.NoError(t, s.Validate())
}

func TestSnapshotRemoveProduct(t *testing.T) {
	s := sampleSnapshot()
	assert.True(t, s.RemoveProduct(7))
	assert.False(t, s.RemoveProduct(7))
	assert.Empty(t, s.Products["drinks"])
}

func TestSnapshotClone(t *testing.T) {
	s := sampleSnapshot()
	s.Products["pizza"][0].CustomPrices = map[QuantityKey]PriceEntry{"2": SimplePrice(d("15"))}

	cp := s.Clone()
	cp.Products["pizza"][0].Name = "changed"
	cp.Products["pizza"][0].CustomPrices["3"] = SimplePrice(d("20"))
	cp.Categories["drinks"].Name = "changed"
	cp.Admin.Whitelist[0] = "changed"

	assert.Equal(t, "Margherita", s.Products["pizza"][0].Name)
	assert.Len(t, s.Products["pizza"][0].CustomPrices, 1)
	assert.Equal(t, "Drinks", s.Categories["drinks"].Name)
	assert.Equal(t, "Alice", s.Admin.Whitelist[0])
}

func TestAdminConfig(t *testing.T) {
	a := AdminConfig{Whitelist: []string{"Alice"}}

	assert.True(t, a.IsWhitelisted("@alice"))
	assert.True(t, a.IsWhitelisted("ALICE"))
	assert.False(t, a.IsWhitelisted(""))

	assert.ErrorIs(t, a.AddIdentity("@ALICE"), e.ErrConflict)
	require.NoError(t, a.AddIdentity("@bob"))
	assert.Equal(t, []string{"Alice", "bob"}, a.Whitelist)

	require.NoError(t, a.RemoveIdentity("alice"))
	assert.ErrorIs(t, a.RemoveIdentity("alice"), e.ErrNotFound)
	assert.ErrorIs(t, a.AddIdentity(" @ "), e.ErrIdentityRequired)
}
