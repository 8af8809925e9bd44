package sortable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
)

func TestSortable(t *testing.T) {
	tbl := NewTable()
	for _, name := range []string{"foo", "bar", "baz"} {
		_, err := tbl.Add(name, KindString)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, "foo", tbl.Field(0).Name)
	assert.Equal(t, KindString, tbl.Field(0).Kind)
	assert.Equal(t, "bar", tbl.Field(1).Name)
	assert.Equal(t, "baz", tbl.Field(2).Name)
	assert.Equal(t, 0, tbl.GetFieldIdx("foo"))
	assert.Equal(t, 0, tbl.GetFieldIdx("FoO"))
	assert.Equal(t, 1, tbl.GetFieldIdx("bar"))
	assert.Equal(t, -1, tbl.GetFieldIdx("barbar"))

	v := NewVector(tbl.Len())
	assert.Equal(t, tbl.Len(), v.Len())
	assert.True(t, v.Get(0).IsNull())
	v.Put(0, StringValue("hello"))
	assert.Equal(t, KindString, v.Get(0).Kind)
	assert.True(t, v.Get(1).IsNull())
	assert.True(t, v.Get(2).IsNull())
	v.Put(1, NumberValue(3.141))
	assert.Equal(t, KindNumber, v.Get(1).Kind)

	v2 := NewVector(tbl.Len())
	v2.Put(0, StringValue("Maße"))
	assert.Equal(t, "masse", v2.Get(0).Str)
	v2.Put(1, NumberValue(4.444))

	key := Key{Index: 0, Ascending: false}
	rc, err := Cmp(v, v2, key)
	require.NoError(t, err)
	assert.Greater(t, rc, 0)

	key.Ascending = true
	rc, err = Cmp(v, v2, key)
	require.NoError(t, err)
	assert.Less(t, rc, 0)

	rc, err = Cmp(v, v, key)
	require.NoError(t, err)
	assert.Equal(t, 0, rc)

	key.Index = 1
	rc, err = Cmp(v, v2, key)
	require.NoError(t, err)
	assert.Equal(t, -1, rc)

	key.Ascending = false
	rc, err = Cmp(v, v2, key)
	require.NoError(t, err)
	assert.Equal(t, 1, rc)
}

func TestCmpNullsAndErrors(t *testing.T) {
	a, b := NewVector(2), NewVector(2)
	b.Put(0, NumberValue(1))

	rc, err := Cmp(a, b, Key{Index: 0, Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, -1, rc)

	a.Put(0, StringValue("x"))
	_, err = Cmp(a, b, Key{Index: 0, Ascending: true})
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeMismatch))

	_, err = Cmp(a, b, Key{Index: 5})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnknownField))
}

func TestCmpMulti(t *testing.T) {
	a, b := NewVector(2), NewVector(2)
	a.Put(0, StringValue("same"))
	b.Put(0, StringValue("SAME"))
	a.Put(1, NumberValue(2))
	b.Put(1, NumberValue(1))

	rc, err := CmpMulti(a, b, []Key{{Index: 0, Ascending: true}, {Index: 1, Ascending: true}})
	require.NoError(t, err)
	assert.Equal(t, 1, rc)
}

func TestTableCapacity(t *testing.T) {
	tbl := NewTable()
	for i := 0; i < MaxFields; i++ {
		_, err := tbl.Add("f", KindNumber)
		require.NoError(t, err)
	}
	_, err := tbl.Add("overflow", KindNumber)
	assert.True(t, apperrors.Is(err, apperrors.ErrSchemaCapacity))
}
