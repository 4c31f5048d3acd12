package db

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaths(t *testing.T) {
	type CustomInt int
	type S struct {
		I   int        `db:"I"`
		PI  *int       `db:"PI"`
		CI  CustomInt  `db:"CI"`
		PCI *CustomInt `db:"PCI"`
		B   bool       `db:"B"`
		PB  *bool      `db:"PB"`

		NoTag int
	}
	type Nested struct {
		S  S  `db:"S"`
		PS *S `db:"PS"`

		NoTag S
	}

	names, paths := getColumnNamesAndPaths(reflect.TypeOf(Nested{}), nil, nil)
	assert.Equal(t, []columnName{
		{"S", "I"}, {"S", "PI"},
		{"S", "CI"}, {"S", "PCI"},
		{"S", "B"}, {"S", "PB"},
		{"PS", "I"}, {"PS", "PI"},
		{"PS", "CI"}, {"PS", "PCI"},
		{"PS", "B"}, {"PS", "PB"},
	}, names)
	assert.Equal(t, []fieldPath{
		{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}, {0, 5},
		{1, 0}, {1, 1}, {1, 2}, {1, 3}, {1, 4}, {1, 5},
	}, paths)
	assert.True(t, len(names) == len(paths))

	testStruct := Nested{}
	for i, path := range paths {
		val, fieldName := followPathThroughStructs(reflect.ValueOf(&testStruct), path)
		assert.True(t, val.IsValid())
		assert.True(t, strings.Contains(strings.Join(names[i], "."), fieldName))
	}
}

func TestCompileQuery(t *testing.T) {
	type row struct {
		ID    int    `db:"id"`
		Value string `db:"value"`
	}

	t.Run("plain columns", func(t *testing.T) {
		compiled := compileQuery("SELECT $columns FROM object_field", reflect.TypeOf(row{}))
		assert.Equal(t, "SELECT id, value FROM object_field", compiled.query)
	})

	t.Run("prefixed columns", func(t *testing.T) {
		compiled := compileQuery("SELECT $columns{o} FROM object_field AS o", reflect.TypeOf(row{}))
		assert.Equal(t, "SELECT o.id, o.value FROM object_field AS o", compiled.query)
	})

	t.Run("no placeholder passes through", func(t *testing.T) {
		compiled := compileQuery("SELECT 1", reflect.TypeOf(0))
		assert.Equal(t, "SELECT 1", compiled.query)
	})
}

func TestQueryBuilder(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		var qb QueryBuilder
		qb.Add("foo $? bar $?", 3, "hello")
		qb.Add("baz $?", true)

		assert.Equal(t, "foo $1 bar $2\nbaz $3\n", qb.String())
		assert.Equal(t, []interface{}{3, "hello", true}, qb.Args())
	})

	t.Run("too few arguments", func(t *testing.T) {
		assert.Panics(t, func() {
			var qb QueryBuilder
			qb.Add("foo $? bar $?", 3)
		})
	})

	t.Run("too many arguments", func(t *testing.T) {
		assert.Panics(t, func() {
			var qb QueryBuilder
			qb.Add("foo $?", 3, 4)
		})
	})
}
