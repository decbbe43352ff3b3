package market

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fund categories inferred from a title or name.
const (
	CategoryStock = "股票型"
	CategoryBond  = "债券型"
)

// ErrFundNotFound is returned when the page carries no fund name.
var ErrFundNotFound = errors.New("fund not found, check the code")

// ErrInvalidFundCode is returned for codes that are not six digits.
var ErrInvalidFundCode = errors.New("invalid fund code")

var (
	fundNameVar = regexp.MustCompile(`var\s+fS_name\s*=\s*"([^"]+)"`)
	fundTypeVar = regexp.MustCompile(`var\s+fS_type\s*=\s*"([^"]+)"`)
	fundCode    = regexp.MustCompile(`^[0-9A-Za-z]{1,12}$`)
)

// FundInfo describes a fund.
type FundInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// FundService scrapes fund detail pages.
type FundService struct {
	baseURL string
	client  *http.Client
}

// NewFundService creates a service reading pages under baseURL.
func NewFundService(baseURL string, opts ...Option) *FundService {
	o := buildOptions(opts)
	return &FundService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  o.client,
	}
}

// FundInfo fetches the name and category of the fund with code. Type is empty
// when it cannot be determined.
func (s *FundService) FundInfo(ctx context.Context, code string) (*FundInfo, error) {
	code = strings.TrimSpace(code)
	if !fundCode.MatchString(code) {
		return nil, fmt.Errorf("%w %q", ErrInvalidFundCode, code)
	}

	url := fmt.Sprintf("%s/%s.html", s.baseURL, code)
	body, err := fetch(ctx, s.client, url, s.baseURL+"/", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, err
	}

	info, err := ParseFundPage(body)
	if err != nil {
		return nil, err
	}
	info.Code = code
	info.URL = url
	return info, nil
}

// ParseFundPage extracts fund details from a detail page.
func ParseFundPage(page []byte) (*FundInfo, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	info := &FundInfo{}

	// Titles look like "<name>(<code>)基金净值_估值_行情走势—天天基金网".
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if name, _, ok := strings.Cut(title, "("); ok {
		info.Name = strings.TrimSpace(name)
	}
	if info.Name == "" {
		if m := fundNameVar.FindSubmatch(page); m != nil {
			info.Name = string(m[1])
		}
	}

	if m := fundTypeVar.FindSubmatch(page); m != nil {
		info.Type = string(m[1])
	}
	if info.Type == "" {
		info.Type = Categorize(title)
	}
	if info.Type == "" {
		info.Type = Categorize(info.Name)
	}

	if info.Name == "" {
		return nil, ErrFundNotFound
	}
	return info, nil
}

// Categorize infers the fund category from keywords in s.
func Categorize(s string) string {
	switch {
	case s == "":
		return ""
	case containsAny(s, "股票", "指数", "混合"):
		return CategoryStock
	case containsAny(s, "债券", "纯债", "债", "货币"):
		return CategoryBond
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
