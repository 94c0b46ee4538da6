package shape

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgelunams/contratospoc/internal/common"
)

func TestDecodeKeepsKeyOrder(t *testing.T) {
	v, err := Decode([]byte(`{"z": 1, "a": {"y": true, "b": null}, "m": [1, "dos"]}`))
	require.NoError(t, err)
	require.Equal(t, KindObject, v.Kind())

	obj := v.Object()
	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys())

	inner, _ := obj.Get("a")
	assert.Equal(t, []string{"y", "b"}, inner.Object().Keys())

	m, _ := obj.Get("m")
	require.Len(t, m.Items(), 2)
	assert.Equal(t, "dos", m.Items()[1].Text())
}

func TestDecodeReportsOffset(t *testing.T) {
	_, err := Decode([]byte(`{"Contrato": {"nombre": "x",}}`))
	require.Error(t, err)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Greater(t, de.Offset, int64(0))
	assert.True(t, errors.Is(err, common.ErrDecode))
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	_, err := Decode([]byte(`{"a": 1} {"b": 2}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"a": 1`))
	assert.Error(t, err)
}

func TestAsObject(t *testing.T) {
	obj := NewObject()
	obj.Set("nombre", ScalarValue("ACME"))

	got, err := AsObject(ObjectValue(obj), "CompaniaInfo", nil)
	require.NoError(t, err)
	assert.Same(t, obj, got)

	got, err = AsObject(SequenceValue(ObjectValue(obj), ScalarValue("x")), "CompaniaInfo", nil)
	require.NoError(t, err)
	assert.Same(t, obj, got)

	_, err = AsObject(SequenceValue(ScalarValue("x")), "CompaniaInfo", nil)
	var se *StructureError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "CompaniaInfo", se.Label)
	assert.True(t, errors.Is(err, common.ErrStructure))

	_, err = AsObject(ScalarValue("ACME"), "CompaniaInfo", nil)
	assert.Error(t, err)

	_, err = AsObject(SequenceValue(), "CompaniaInfo", nil)
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	withKey := NewObject()
	withKey.Set("rut", ScalarValue("76.000.000-0"))
	other := NewObject()
	other.Set("nombre", ScalarValue("ACME"))

	def := ScalarValue("default")

	assert.Equal(t, "76.000.000-0", Lookup(ObjectValue(withKey), "rut", def).Text())
	assert.Equal(t, "default", Lookup(ObjectValue(other), "rut", def).Text())
	assert.Equal(t, "76.000.000-0", Lookup(SequenceValue(ScalarValue(1), ObjectValue(other), ObjectValue(withKey)), "rut", def).Text())
	assert.Equal(t, "default", Lookup(ScalarValue("rut"), "rut", def).Text())
}

func TestScalarHelpers(t *testing.T) {
	v, err := Decode([]byte(`{"n": 30, "s": "45 días", "b": "Sí", "f": false, "e": ""}`))
	require.NoError(t, err)
	obj := v.Object()

	n, _ := obj.Get("n")
	i, ok := n.Int()
	assert.True(t, ok)
	assert.Equal(t, 30, i)

	s, _ := obj.Get("s")
	i, ok = s.Int()
	assert.True(t, ok)
	assert.Equal(t, 45, i)

	b, _ := obj.Get("b")
	assert.True(t, b.Bool(false))
	f, _ := obj.Get("f")
	assert.False(t, f.Bool(true))

	e, _ := obj.Get("e")
	assert.True(t, e.IsEmpty())
	missing, _ := obj.Get("missing")
	assert.True(t, missing.IsNull())
}

func TestObjects(t *testing.T) {
	a := NewObject()
	objs, skipped := Objects(SequenceValue(ObjectValue(a), ScalarValue("x"), Null))
	assert.Len(t, objs, 1)
	assert.Equal(t, 2, skipped)

	objs, skipped = Objects(ObjectValue(a))
	assert.Len(t, objs, 1)
	assert.Zero(t, skipped)

	objs, _ = Objects(ScalarValue("x"))
	assert.Empty(t, objs)
}
