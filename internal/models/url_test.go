package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Has(t *testing.T) {
	u := NewURL("https://example.com/a")

	assert.True(t, u.Has(FieldLoc))
	assert.False(t, u.Has(FieldLastMod))
	assert.False(t, u.Has(FieldChangeFreq))
	assert.False(t, u.Has(FieldPriority))

	u.SetLastMod(time.Now()).SetChangeFreq(ChangeDaily).SetPriority(0)

	assert.True(t, u.Has(FieldLastMod))
	assert.True(t, u.Has(FieldChangeFreq))
	// zero priority is still a set value
	assert.True(t, u.Has(FieldPriority))

	u.UnsetPriority().UnsetLastMod().UnsetChangeFreq()
	assert.False(t, u.Has(FieldPriority))
	assert.False(t, u.Has(FieldLastMod))
	assert.False(t, u.Has(FieldChangeFreq))

	assert.False(t, NewURL("").Has(FieldLoc))
	assert.False(t, u.Has(Field("unknown")))
}

func TestURL_FormatLastMod(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("xml uses RFC3339", func(t *testing.T) {
		got, err := NewURL("/a").SetLastMod(ts).FormatLastMod(FormatXML)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-01T00:00:00Z", got)
	})

	t.Run("keeps offset", func(t *testing.T) {
		loc := time.FixedZone("CET", 3600)
		got, err := NewURL("/a").SetLastMod(time.Date(2024, 5, 2, 10, 30, 0, 0, loc)).FormatLastMod(FormatXML)
		require.NoError(t, err)
		assert.Equal(t, "2024-05-02T10:30:00+01:00", got)
	})

	t.Run("absent", func(t *testing.T) {
		got, err := NewURL("/a").FormatLastMod(FormatXML)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("other formats fail", func(t *testing.T) {
		for _, f := range []Format{FormatRSS, FormatTXT, Format("csv")} {
			_, err := NewURL("/a").SetLastMod(ts).FormatLastMod(f)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsupportedFormat))

			var ufe *UnsupportedFormatError
			require.True(t, errors.As(err, &ufe))
			assert.Equal(t, f, ufe.Format)
		}
	})
}

func TestParseChangeFreq(t *testing.T) {
	tests := []struct {
		in      string
		want    ChangeFreq
		wantErr bool
	}{
		{"always", ChangeAlways, false},
		{"Hourly", ChangeHourly, false},
		{" daily ", ChangeDaily, false},
		{"weekly", ChangeWeekly, false},
		{"monthly", ChangeMonthly, false},
		{"yearly", ChangeYearly, false},
		{"never", ChangeNever, false},
		{"sometimes", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChangeFreq(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPriority(t *testing.T) {
	assert.Equal(t, "1.0", FormatPriority(1))
	assert.Equal(t, "0.0", FormatPriority(0))
	assert.Equal(t, "0.5", FormatPriority(0.5))
	assert.Equal(t, "0.85", FormatPriority(0.85))
}

func TestURL_JSON(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	data, err := json.Marshal(NewURL("/only-loc"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"loc":"/only-loc"}`, string(data))

	full := NewURL("/full").SetLastMod(ts).SetChangeFreq(ChangeWeekly).SetPriority(0.8)
	data, err = json.Marshal(full)
	require.NoError(t, err)
	assert.JSONEq(t, `{"loc":"/full","lastmod":"2024-01-01T00:00:00Z","changefreq":"weekly","priority":0.8}`, string(data))

	var decoded URL
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "/full", decoded.Loc())
	lm, ok := decoded.LastMod()
	require.True(t, ok)
	assert.True(t, ts.Equal(lm))
	cf, _ := decoded.ChangeFreq()
	assert.Equal(t, ChangeWeekly, cf)
	p, _ := decoded.Priority()
	assert.Equal(t, 0.8, p)

	assert.Error(t, json.Unmarshal([]byte(`{"loc":"/x","changefreq":"often"}`), &decoded))
}

func TestURL_Clone(t *testing.T) {
	orig := NewURL("/a").SetPriority(0.3).SetLastMod(time.Now())
	c := orig.Clone()
	c.SetPriority(0.9).SetLoc("/b")

	p, _ := orig.Priority()
	assert.Equal(t, 0.3, p)
	assert.Equal(t, "/a", orig.Loc())
}

func TestStoredURL_RoundTrip(t *testing.T) {
	ts := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	u := NewURL("/page").SetLastMod(ts).SetChangeFreq(ChangeMonthly).SetPriority(0.4)

	rec := NewStoredURL("pages", u)
	assert.Equal(t, "pages", rec.SitemapName)
	assert.NotEqual(t, [16]byte{}, [16]byte(rec.ID))

	back, err := rec.ToURL()
	require.NoError(t, err)
	assert.Equal(t, "/page", back.Loc())
	cf, _ := back.ChangeFreq()
	assert.Equal(t, ChangeMonthly, cf)

	rec.ChangeFreq = "bogus"
	_, err = rec.ToURL()
	assert.Error(t, err)
}

func TestFormat_ContentType(t *testing.T) {
	assert.Equal(t, "application/xml", FormatXML.ContentType())
	assert.Equal(t, "application/rss+xml", FormatRSS.ContentType())
	assert.Equal(t, "text/plain", FormatTXT.ContentType())
	assert.Empty(t, Format("html").ContentType())
	assert.Equal(t, FormatXML, ParseFormat(" XML "))
}
