package validators

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
)

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=50&page=x&big=500", nil)

	v, err := ParseQueryInt(r, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 50, v)

	v, err = ParseQueryInt(r, "missing", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, v)

	_, err = ParseQueryInt(r, "page", 1, 1, 100)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = ParseQueryInt(r, "big", 1, 1, 100)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestParseQueryOptionalValues(t *testing.T) {
	r := httptest.NewRequest("GET", "/?customer_id=7&active=false&from=2026-03-01&to=2026-03-02T10:00:00Z&bad_id=-1&bad_date=03/01", nil)

	id, err := ParseQueryInt64(r, "customer_id")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, int64(7), *id)

	id, err = ParseQueryInt64(r, "absent")
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = ParseQueryInt64(r, "bad_id")
	assert.Error(t, err)

	active, err := ParseQueryBool(r, "active")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.False(t, *active)

	from, err := ParseQueryDate(r, "from")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *from)

	to, err := ParseQueryDate(r, "to")
	require.NoError(t, err)
	assert.Equal(t, 10, to.Hour())

	_, err = ParseQueryDate(r, "bad_date")
	assert.Error(t, err)
}
