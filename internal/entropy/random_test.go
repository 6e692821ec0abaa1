package entropy

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientWithoutKey(t *testing.T) {
	c := NewClient("")
	assert.Nil(t, c)
	assert.False(t, c.Enabled())

	v := c.Float()
	assert.GreaterOrEqual(t, v, 0.0)
	assert.Less(t, v, 1.0)
}

func TestClientDrainsPool(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		data := make([]string, 20)
		for i := range data {
			data[i] = fmt.Sprintf("0.%02d", i+1)
		}
		fmt.Fprintf(w, `{"result":{"random":{"data":[%s]}}}`, strings.Join(data, ","))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.url = srv.URL

	assert.Equal(t, 0.01, c.Float())
	assert.Equal(t, 0.02, c.Float())
	assert.Equal(t, 1, calls)
}

func TestClientFallsBackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"message":"quota exceeded"}}`)
	}))
	defer srv.Close()

	c := NewClient("key")
	c.url = srv.URL

	for i := 0; i < 5; i++ {
		v := c.Float()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestSeededIsReproducible(t *testing.T) {
	a, b := NewSeeded(7), NewSeeded(7)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float(), b.Float())
	}
}

func TestSequenceWraps(t *testing.T) {
	s := NewSequence(0.25, 0.75)
	assert.Equal(t, []float64{0.25, 0.75, 0.25}, []float64{s.Float(), s.Float(), s.Float()})
}

func TestPick(t *testing.T) {
	assert.IsType(t, Crypto{}, Pick(nil, 0))
	assert.IsType(t, &Seeded{}, Pick(nil, 3))
	assert.IsType(t, &Client{}, Pick(NewClient("key"), 3))
}

func TestClientFetchReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"message":"quota exceeded"}}`)
	}))
	defer srv.Close()

	c := NewClient("key")
	c.url = srv.URL

	batch, err := c.fetch()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Empty(t, batch)
	assert.Empty(t, c.pool)
}
