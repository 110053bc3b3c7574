// Package trace обращается к государственной системе прослеживаемости скота по номеру бирки.
package trace

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"farmTracker/internal/logger"
	"farmTracker/internal/models/cow"

	"go.uber.org/zap"
)

var (
	ErrNotFound    = errors.New("по бирке нет данных")
	ErrTimeout     = errors.New("система прослеживаемости не ответила вовремя")
	ErrMalformed   = errors.New("некорректный ответ системы прослеживаемости")
	ErrUnavailable = errors.New("система прослеживаемости недоступна")
)

// код ответа сервиса, когда по запросу ничего нет
const resultNoData = "03"

type Lookuper interface {
	Lookup(ctx context.Context, earTag, option string) ([]cow.Record, error)
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type xmlField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlItem struct {
	Fields []xmlField `xml:",any"`
}

type xmlResponse struct {
	XMLName xml.Name `xml:"response"`
	Header  struct {
		ResultCode string `xml:"resultCode"`
		ResultMsg  string `xml:"resultMsg"`
	} `xml:"header"`
	Body struct {
		Items struct {
			Item []xmlItem `xml:"item"`
		} `xml:"items"`
	} `xml:"body"`
}

// Lookup возвращает записи в порядке ответа сервиса; повторов не делает
func (c *Client) Lookup(ctx context.Context, earTag, option string) ([]cow.Record, error) {
	start := time.Now()

	query := url.Values{}
	query.Set("serviceKey", c.apiKey)
	query.Set("traceNo", earTag)
	query.Set("optionNo", option)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("запрос к системе прослеживаемости: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			logger.Warn("Trace: Таймаут запроса", zap.String("ear_tag_number", earTag), zap.Duration("ms", time.Since(start)))
			return nil, ErrTimeout
		}
		logger.Error("Trace: Ошибка запроса", err, zap.String("ear_tag_number", earTag))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Trace: Неожиданный статус ответа", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: статус %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	records, err := parse(body)
	if err != nil {
		logger.Warn("Trace: Не удалось разобрать ответ", zap.String("ear_tag_number", earTag), zap.Error(err))
		return nil, err
	}

	logger.Info("Trace: Получены данные",
		zap.String("ear_tag_number", earTag),
		zap.Int("records", len(records)),
		zap.Duration("ms", time.Since(start)))
	return records, nil
}

func parse(body []byte) ([]cow.Record, error) {
	var doc xmlResponse
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	code := strings.TrimSpace(doc.Header.ResultCode)
	switch code {
	case "00", "0":
	case resultNoData:
		return nil, ErrNotFound
	case "":
		return nil, fmt.Errorf("%w: нет кода результата", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: %s %s", ErrMalformed, code, strings.TrimSpace(doc.Header.ResultMsg))
	}

	records := make([]cow.Record, 0, len(doc.Body.Items.Item))
	for _, item := range doc.Body.Items.Item {
		record := make(cow.Record, len(item.Fields))
		for _, field := range item.Fields {
			record[field.XMLName.Local] = strings.TrimSpace(field.Value)
		}
		if len(record) > 0 {
			records = append(records, record)
		}
	}

	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
