package verification

import (
	"math"
	"time"

	"farmTracker/internal/models/cow"
)

const DefaultOption = "1"

// Pending - временная заявка на регистрацию коровы до подтверждения пользователем
type Pending struct {
	ID           string       `json:"verification_id"`
	UserID       string       `json:"user_id"`
	FarmID       string       `json:"farm_id"`
	EarTagNumber string       `json:"ear_tag_number"`
	Option       string       `json:"option"`
	Records      []cow.Record `json:"records"`
	CreatedAt    time.Time    `json:"created_at"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

func (p *Pending) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// MinutesRemaining округляет вниз и не уходит ниже нуля
func (p *Pending) MinutesRemaining(now time.Time) int {
	left := p.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Floor(left.Minutes()))
}

func (p *Pending) Clone() *Pending {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Records != nil {
		cp.Records = make([]cow.Record, len(p.Records))
		for i, r := range p.Records {
			cp.Records[i] = r.Clone()
		}
	}
	return &cp
}

// Summary - то, что пользователь сверяет перед подтверждением
type Summary struct {
	EarTagNumber string `json:"ear_tag_number"`
	BirthDate    string `json:"birth_date,omitempty"`
	Sex          string `json:"sex,omitempty"`
	Breed        string `json:"breed,omitempty"`
	FarmName     string `json:"farm_name,omitempty"`
	FarmAddress  string `json:"farm_address,omitempty"`
	Vaccination  string `json:"last_vaccination,omitempty"`
	RecordCount  int    `json:"record_count"`
}

// ключи полей в ответе системы прослеживаемости
const (
	KeyBirthDate   = "birthYmd"
	KeySex         = "sexNm"
	KeyBreed       = "lsTypeNm"
	KeyFarmName    = "farmNm"
	KeyFarmAddress = "farmAddr"
	KeyVaccination = "vaccineLastinjectionYmd"
)

// Summarize берёт первое непустое значение каждого поля по порядку записей
func Summarize(earTag string, records []cow.Record) Summary {
	return Summary{
		EarTagNumber: earTag,
		BirthDate:    firstValue(records, KeyBirthDate),
		Sex:          firstValue(records, KeySex),
		Breed:        firstValue(records, KeyBreed),
		FarmName:     firstValue(records, KeyFarmName),
		FarmAddress:  firstValue(records, KeyFarmAddress),
		Vaccination:  firstValue(records, KeyVaccination),
		RecordCount:  len(records),
	}
}

func firstValue(records []cow.Record, key string) string {
	for _, r := range records {
		if v, ok := r[key]; ok && v != "" {
			return v
		}
	}
	return ""
}
