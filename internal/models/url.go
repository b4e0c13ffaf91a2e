package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ChangeFreq hints how often the page at a URL is expected to change.
type ChangeFreq string

const (
	ChangeAlways  ChangeFreq = "always"
	ChangeHourly  ChangeFreq = "hourly"
	ChangeDaily   ChangeFreq = "daily"
	ChangeWeekly  ChangeFreq = "weekly"
	ChangeMonthly ChangeFreq = "monthly"
	ChangeYearly  ChangeFreq = "yearly"
	ChangeNever   ChangeFreq = "never"
)

// ParseChangeFreq validates a changefreq value.
func ParseChangeFreq(s string) (ChangeFreq, error) {
	switch cf := ChangeFreq(strings.ToLower(strings.TrimSpace(s))); cf {
	case ChangeAlways, ChangeHourly, ChangeDaily, ChangeWeekly, ChangeMonthly, ChangeYearly, ChangeNever:
		return cf, nil
	}
	return "", fmt.Errorf("invalid changefreq %q", s)
}

// LastModLayout is the W3C datetime form used for <lastmod>.
const LastModLayout = time.RFC3339

// Field names a URL attribute for presence checks.
type Field string

const (
	FieldLoc        Field = "loc"
	FieldLastMod    Field = "lastmod"
	FieldChangeFreq Field = "changefreq"
	FieldPriority   Field = "priority"
)

// URL is one sitemap entry. Optional fields track presence separately from
// their zero value so renderers can omit them.
type URL struct {
	loc        string
	lastMod    *time.Time
	changeFreq ChangeFreq
	priority   *float64
}

// NewURL creates a URL entry for loc
func NewURL(loc string) *URL {
	return &URL{loc: loc}
}

func (u *URL) Loc() string {
	return u.loc
}

func (u *URL) SetLoc(loc string) *URL {
	u.loc = loc
	return u
}

func (u *URL) LastMod() (time.Time, bool) {
	if u.lastMod == nil {
		return time.Time{}, false
	}
	return *u.lastMod, true
}

func (u *URL) SetLastMod(t time.Time) *URL {
	u.lastMod = &t
	return u
}

func (u *URL) UnsetLastMod() *URL {
	u.lastMod = nil
	return u
}

func (u *URL) ChangeFreq() (ChangeFreq, bool) {
	return u.changeFreq, u.changeFreq != ""
}

func (u *URL) SetChangeFreq(cf ChangeFreq) *URL {
	u.changeFreq = cf
	return u
}

func (u *URL) UnsetChangeFreq() *URL {
	u.changeFreq = ""
	return u
}

func (u *URL) Priority() (float64, bool) {
	if u.priority == nil {
		return 0, false
	}
	return *u.priority, true
}

func (u *URL) SetPriority(p float64) *URL {
	u.priority = &p
	return u
}

func (u *URL) UnsetPriority() *URL {
	u.priority = nil
	return u
}

// Has reports whether the field carries a value.
func (u *URL) Has(f Field) bool {
	switch f {
	case FieldLoc:
		return u.loc != ""
	case FieldLastMod:
		return u.lastMod != nil
	case FieldChangeFreq:
		return u.changeFreq != ""
	case FieldPriority:
		return u.priority != nil
	}
	return false
}

// FormatLastMod formats lastmod for the target document format. Only XML
// defines a rule (RFC3339); an absent lastmod yields "".
func (u *URL) FormatLastMod(f Format) (string, error) {
	if f != FormatXML {
		return "", &UnsupportedFormatError{Format: f}
	}
	if u.lastMod == nil {
		return "", nil
	}
	return u.lastMod.Format(LastModLayout), nil
}

// FormatPriority renders priority with at least one decimal place.
func (u *URL) FormatPriority() string {
	if u.priority == nil {
		return ""
	}
	return FormatPriority(*u.priority)
}

// Clone returns an independent copy of the entry.
func (u *URL) Clone() *URL {
	c := &URL{loc: u.loc, changeFreq: u.changeFreq}
	if u.lastMod != nil {
		t := *u.lastMod
		c.lastMod = &t
	}
	if u.priority != nil {
		p := *u.priority
		c.priority = &p
	}
	return c
}

type urlJSON struct {
	Loc        string     `json:"loc"`
	LastMod    *time.Time `json:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `json:"changefreq,omitempty"`
	Priority   *float64   `json:"priority,omitempty"`
}

func (u *URL) MarshalJSON() ([]byte, error) {
	return json.Marshal(urlJSON{
		Loc:        u.loc,
		LastMod:    u.lastMod,
		ChangeFreq: u.changeFreq,
		Priority:   u.priority,
	})
}

func (u *URL) UnmarshalJSON(data []byte) error {
	var raw urlJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.ChangeFreq != "" {
		cf, err := ParseChangeFreq(string(raw.ChangeFreq))
		if err != nil {
			return err
		}
		raw.ChangeFreq = cf
	}
	*u = URL{loc: raw.Loc, lastMod: raw.LastMod, changeFreq: raw.ChangeFreq, priority: raw.Priority}
	return nil
}
