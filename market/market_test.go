package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

const fundPage = `<!DOCTYPE html>
<html><head><title>博时信用债纯债债券A(050027)基金净值_估值_行情走势—天天基金网</title></head>
<body><script>var fS_name = "博时信用债纯债债券A";var fS_code = "050027";</script></body></html>`

func TestParseFundPage(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		wantName string
		wantType string
	}{
		{
			name:     "TitleAndInferredType",
			page:     fundPage,
			wantName: "博时信用债纯债债券A",
			wantType: CategoryBond,
		},
		{
			name:     "ExplicitType",
			page:     `<title>易方达蓝筹精选混合(005827)</title><script>var fS_type = "混合型-偏股";</script>`,
			wantName: "易方达蓝筹精选混合",
			wantType: "混合型-偏股",
		},
		{
			name:     "NameFromScript",
			page:     `<title>天天基金网</title><script>var fS_name = "沪深300指数增强";</script>`,
			wantName: "沪深300指数增强",
			wantType: CategoryStock,
		},
		{
			name:     "UnknownType",
			page:     `<title>某某理财(000000)</title>`,
			wantName: "某某理财",
			wantType: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ParseFundPage([]byte(tt.page))
			assert.NoError(t, err)
			assert.Equal(t, tt.wantName, info.Name)
			assert.Equal(t, tt.wantType, info.Type)
		})
	}

	t.Run("NoName", func(t *testing.T) {
		_, err := ParseFundPage([]byte(`<html><title>404</title></html>`))
		assert.True(t, errors.Is(err, ErrFundNotFound))
	})
}

func TestCategorize(t *testing.T) {
	assert.Equal(t, CategoryStock, Categorize("招商中证白酒指数"))
	assert.Equal(t, CategoryBond, Categorize("华夏货币A"))
	assert.Equal(t, CategoryStock, Categorize("股债混合"))
	assert.Equal(t, "", Categorize("黄金ETF"))
	assert.Equal(t, "", Categorize(""))
}

func TestFundService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/050027.html" {
			http.NotFound(w, r)
			return
		}
		assert.NotEqual(t, "", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(fundPage))
	}))
	defer srv.Close()

	svc := NewFundService(srv.URL+"/", WithHTTPClient(srv.Client()))

	info, err := svc.FundInfo(context.Background(), "050027")
	assert.NoError(t, err)
	assert.Equal(t, "050027", info.Code)
	assert.Equal(t, srv.URL+"/050027.html", info.URL)
	assert.Equal(t, CategoryBond, info.Type)

	_, err = svc.FundInfo(context.Background(), "999999")
	assert.Error(t, err)

	_, err = svc.FundInfo(context.Background(), "../etc")
	assert.Error(t, err)
}

func TestParseQuote(t *testing.T) {
	data, err := ParseQuote([]byte(`{"rc":0,"data":{"f43":465417,"f169":-4451,"f170":-95}}`))
	assert.NoError(t, err)
	assert.Equal(t, 4654.17, data.Price)
	assert.Equal(t, -44.51, data.Change)
	assert.Equal(t, -0.95, data.ChangeRate)

	_, err = ParseQuote([]byte(`{"rc":0,"data":null}`))
	assert.Error(t, err)

	_, err = ParseQuote([]byte(`not json`))
	assert.Error(t, err)
}

func TestIndexService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secid := r.URL.Query().Get("secid")
		assert.True(t, strings.Contains(r.URL.Query().Get("fields"), "f170"))
		switch secid {
		case "1.000300":
			_, _ = w.Write([]byte(`{"data":{"f43":398765,"f169":1234,"f170":31}}`))
		case "100.SPX":
			_, _ = w.Write([]byte(`{"data":{"f43":612345,"f169":-500,"f170":-8}}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	fixed := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)
	svc := NewIndexService(srv.URL, WithHTTPClient(srv.Client()), WithClock(func() time.Time { return fixed }))

	data, err := svc.Index(context.Background(), "000300")
	assert.NoError(t, err)
	assert.Equal(t, "沪深300", data.Name)
	assert.Equal(t, 3987.65, data.Price)
	assert.Equal(t, 12.34, data.Change)
	assert.Equal(t, 0.31, data.ChangeRate)
	assert.Equal(t, "2026-03-04 15:00:00", data.UpdateTime)

	_, err = svc.Index(context.Background(), "DAX")
	var unsupported *UnsupportedIndexError
	assert.True(t, errors.As(err, &unsupported))

	all := svc.AllIndexes(context.Background())
	assert.Equal(t, 2, len(all))
	assert.Equal(t, "000300", all[0].Code)
	assert.Equal(t, "SPX", all[1].Code)
}
