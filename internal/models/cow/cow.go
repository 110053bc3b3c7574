package cow

import (
	"strings"
	"time"
	"unicode"
)

const SourceVerifiedTrace = "verified_trace_lookup"

const EarTagLength = 12

// Record - одна плоская запись из системы прослеживаемости
type Record map[string]string

type Cow struct {
	ID           string     `json:"id" db:"id"`
	FarmID       string     `json:"farm_id" db:"farm_id"`
	OwnerID      string     `json:"owner_id" db:"owner_id"`
	EarTagNumber string     `json:"ear_tag_number" db:"ear_tag_number"`
	Name         string     `json:"name" db:"name"`
	Breed        string     `json:"breed,omitempty" db:"breed"`
	Sex          string     `json:"sex,omitempty" db:"sex"`
	BirthDate    string     `json:"birth_date,omitempty" db:"birth_date"`
	Notes        string     `json:"notes,omitempty" db:"notes"`
	Source       string     `json:"source,omitempty" db:"source"`
	TraceData    []Record   `json:"trace_data,omitempty" db:"trace_data"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty" db:"verified_at"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

func (c *Cow) Clone() *Cow {
	if c == nil {
		return nil
	}
	cp := *c
	if c.TraceData != nil {
		cp.TraceData = make([]Record, len(c.TraceData))
		for i, r := range c.TraceData {
			cp.TraceData[i] = r.Clone()
		}
	}
	if c.VerifiedAt != nil {
		v := *c.VerifiedAt
		cp.VerifiedAt = &v
	}
	if c.UpdatedAt != nil {
		v := *c.UpdatedAt
		cp.UpdatedAt = &v
	}
	return &cp
}

func (r Record) Clone() Record {
	cp := make(Record, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

// NormalizeEarTag убирает дефисы и пробелы; ok == false, если номер не из 12 цифр
func NormalizeEarTag(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		if r < '0' || r > '9' {
			return "", false
		}
		b.WriteRune(r)
	}
	tag := b.String()
	return tag, len(tag) == EarTagLength
}

// DefaultName - имя по последним пяти цифрам бирки, если пользователь его не задал
func DefaultName(earTag string) string {
	if len(earTag) <= 5 {
		return earTag
	}
	return earTag[len(earTag)-5:]
}
