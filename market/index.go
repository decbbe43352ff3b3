package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const quoteFields = "f43,f44,f45,f46,f47,f48,f49,f50,f51,f52,f57,f58,f60,f107,f152,f162,f169,f170,f171"

// Index is a supported market index.
type Index struct {
	Code    string
	Name    string
	SecID   string
	Referer string
}

// Indexes lists the supported indexes in display order.
var Indexes = []Index{
	{Code: "000001", Name: "上证指数", SecID: "1.000001", Referer: "https://quote.eastmoney.com/zs000001.html"},
	{Code: "000300", Name: "沪深300", SecID: "1.000300", Referer: "https://quote.eastmoney.com/zs000300.html"},
	{Code: "SPX", Name: "标普500", SecID: "100.SPX", Referer: "https://quote.eastmoney.com/gb/zsSPX.html"},
	{Code: "NDX", Name: "纳斯达克", SecID: "100.NDX", Referer: "https://quote.eastmoney.com/gb/zsNDX.html"},
}

// LookupIndex returns the index with code.
func LookupIndex(code string) (Index, bool) {
	for _, idx := range Indexes {
		if strings.EqualFold(idx.Code, code) {
			return idx, true
		}
	}
	return Index{}, false
}

// UnsupportedIndexError is returned for unknown index codes.
type UnsupportedIndexError struct {
	Code string
}

func (e *UnsupportedIndexError) Error() string {
	return fmt.Sprintf("unsupported index code: %s", e.Code)
}

// IndexData is a quote for an index.
type IndexData struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Change     float64 `json:"change"`
	ChangeRate float64 `json:"change_rate"`
	UpdateTime string  `json:"update_time"`
}

// IndexService reads index quotes from the push2 quote API.
type IndexService struct {
	quoteURL string
	client   *http.Client
	now      func() time.Time
}

// NewIndexService creates a service querying quoteURL.
func NewIndexService(quoteURL string, opts ...Option) *IndexService {
	o := buildOptions(opts)
	return &IndexService{
		quoteURL: quoteURL,
		client:   o.client,
		now:      o.now,
	}
}

// Index fetches the quote for code.
func (s *IndexService) Index(ctx context.Context, code string) (*IndexData, error) {
	idx, ok := LookupIndex(code)
	if !ok {
		return nil, &UnsupportedIndexError{Code: code}
	}

	q := url.Values{}
	q.Set("secid", idx.SecID)
	q.Set("fields", quoteFields)

	body, err := fetch(ctx, s.client, s.quoteURL+"?"+q.Encode(), idx.Referer, "")
	if err != nil {
		return nil, err
	}

	data, err := ParseQuote(body)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", idx.Code, err)
	}
	data.Code = idx.Code
	data.Name = idx.Name
	data.UpdateTime = s.now().Format(time.DateTime)
	return data, nil
}

// AllIndexes fetches every supported index, skipping those that fail.
func (s *IndexService) AllIndexes(ctx context.Context) []IndexData {
	out := make([]IndexData, 0, len(Indexes))
	for _, idx := range Indexes {
		data, err := s.Index(ctx, idx.Code)
		if err != nil {
			continue
		}
		out = append(out, *data)
	}
	return out
}

// ParseQuote reads price (f43), change (f169) and change rate (f170) from a
// quote response. The API reports each value multiplied by 100.
func ParseQuote(body []byte) (*IndexData, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid quote response")
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		return nil, fmt.Errorf("quote response has no data")
	}

	return &IndexData{
		Price:      data.Get("f43").Float() / 100,
		Change:     data.Get("f169").Float() / 100,
		ChangeRate: data.Get("f170").Float() / 100,
	}, nil
}
