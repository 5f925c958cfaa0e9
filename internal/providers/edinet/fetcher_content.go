package edinet

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/moriyak/kessanlens/internal/provider"
	"github.com/moriyak/kessanlens/pkg/models"
)

// ---- FilingContent fetcher ----
// Downloads one filing's archive and extracts the headline financial
// metrics. The CSV archive (type=4) is tried first because it parses
// reliably; when EDINET has no CSV for the document the XBRL archive
// (type=1) is scanned instead.

const (
	archiveTypeXBRL = 1
	archiveTypeCSV  = 4
)

type contentFetcher struct {
	provider.BaseFetcher
}

func newContentFetcher() *contentFetcher {
	return &contentFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelFilingContent,
			"Financial metrics extracted from one EDINET filing archive",
			[]string{provider.ParamDocID},
			nil,
			time.Hour,
		),
	}
}

func (f *contentFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	docID := strings.TrimSpace(params[provider.ParamDocID])
	if docID == "" {
		return nil, &provider.ErrMissingParam{Param: provider.ParamDocID}
	}
	apiKey := params[injectedKeyParam]

	key := provider.CacheKey(f.ModelType(), provider.QueryParams{
		provider.ParamDocID: docID,
	})

	v, cached, err := f.Load(ctx, key, func(ctx context.Context) (any, error) {
		return extractFinancials(ctx, docID, apiKey)
	})
	if err != nil {
		return nil, err
	}
	if cached {
		return newCachedResult(v), nil
	}
	return newResult(v), nil
}

// extractFinancials runs the CSV-then-XBRL cascade for one document.
func extractFinancials(ctx context.Context, docID, apiKey string) (*models.FilingFinancials, error) {
	if data, err := fetchArchive(ctx, docID, archiveTypeCSV, apiKey); err == nil {
		if fin := parseCSVArchive(data); !fin.Empty() {
			return fin, nil
		}
	} else if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	data, err := fetchArchive(ctx, docID, archiveTypeXBRL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("edinet document %s: %w", docID, err)
	}
	fin := parseXBRLArchive(data)
	if fin.Empty() {
		return nil, fmt.Errorf("edinet document %s: no financial data found", docID)
	}
	return fin, nil
}

// parseCSVArchive scans every CSV member of a type=4 archive for the
// target metrics.
func parseCSVArchive(data []byte) *models.FilingFinancials {
	fin := &models.FilingFinancials{}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fin
	}
	for _, member := range zr.File {
		if !strings.HasSuffix(strings.ToLower(member.Name), ".csv") {
			continue
		}
		text, err := readArchiveMember(member)
		if err != nil {
			continue
		}
		parseFinancialCSV(text, fin)
		if allMetricsFilled(fin) {
			break
		}
	}
	return fin
}

// parseFinancialCSV picks metric values out of one CSV body. EDINET
// CSV rows carry the element name alongside its value, so a line that
// mentions a candidate element and has a parseable nonzero number is
// taken as that metric's value. Already-filled metrics are kept.
func parseFinancialCSV(text string, fin *models.FilingFinancials) {
	for _, line := range strings.Split(text, "\n") {
		cols := splitCSVLine(line)
		if len(cols) < 5 {
			continue
		}
		lower := strings.ToLower(line)
		for _, tag := range metricTags {
			if !metricMissing(fin, tag.label) {
				continue
			}
			for _, name := range tag.names {
				if !strings.Contains(lower, strings.ToLower(name)) {
					continue
				}
				if v, ok := firstNumber(cols); ok {
					tag.set(fin, v)
				}
				break
			}
		}
	}
}

// splitCSVLine splits on both tab and comma: EDINET ships
// tab-separated CSVs, but some generators emit comma-separated ones.
func splitCSVLine(line string) []string {
	if strings.Contains(line, "\t") {
		return strings.Split(line, "\t")
	}
	return strings.Split(line, ",")
}

// firstNumber returns the first parseable nonzero number in cols.
func firstNumber(cols []string) (float64, bool) {
	for _, col := range cols {
		s := strings.Trim(strings.TrimSpace(col), `"`)
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v == 0 {
			continue
		}
		return v, true
	}
	return 0, false
}

func allMetricsFilled(fin *models.FilingFinancials) bool {
	return fin.Sales != nil && fin.OperatingIncome != nil &&
		fin.OrdinaryIncome != nil && fin.NetIncome != nil
}

func metricMissing(fin *models.FilingFinancials, label string) bool {
	switch label {
	case "sales":
		return fin.Sales == nil
	case "operating_income":
		return fin.OperatingIncome == nil
	case "ordinary_income":
		return fin.OrdinaryIncome == nil
	case "net_income":
		return fin.NetIncome == nil
	}
	return false
}

// parseXBRLArchive scans the XBRL instance documents of a type=1
// archive. Values sit in element bodies, so a plain regex per element
// local name is enough for the headline metrics.
func parseXBRLArchive(data []byte) *models.FilingFinancials {
	fin := &models.FilingFinancials{}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fin
	}
	for _, member := range zr.File {
		name := strings.ToLower(member.Name)
		if !strings.HasSuffix(name, ".xbrl") && !strings.HasSuffix(name, ".xml") {
			continue
		}
		text, err := readArchiveMember(member)
		if err != nil {
			continue
		}
		parseXBRLContent(text, fin)
		if allMetricsFilled(fin) {
			break
		}
	}
	return fin
}

func parseXBRLContent(text string, fin *models.FilingFinancials) {
	for _, tag := range metricTags {
		if !metricMissing(fin, tag.label) {
			continue
		}
		for _, name := range tag.names {
			re, err := regexp.Compile(`(?i)<[^>]*` + regexp.QuoteMeta(name) + `[^>]*>([^<]+)<`)
			if err != nil {
				continue
			}
			found := false
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				s := strings.ReplaceAll(strings.TrimSpace(m[1]), ",", "")
				v, err := strconv.ParseFloat(s, 64)
				if err != nil || v == 0 {
					continue
				}
				tag.set(fin, v)
				found = true
				break
			}
			if found {
				break
			}
		}
	}
}

// readArchiveMember decodes one zip member to a UTF-8 string. EDINET
// archives mix UTF-8, UTF-16 and Shift_JIS members depending on file
// type and filer tooling.
func readArchiveMember(member *zip.File) (string, error) {
	rc, err := member.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return decodeText(raw), nil
}

func decodeText(raw []byte) string {
	if len(raw) >= 2 {
		if (raw[0] == 0xFF && raw[1] == 0xFE) || (raw[0] == 0xFE && raw[1] == 0xFF) {
			if s, ok := tryDecode(raw, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)); ok {
				return s
			}
		}
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	if s, ok := tryDecode(raw, japanese.ShiftJIS); ok {
		return s
	}
	return string(raw)
}

func tryDecode(raw []byte, enc encoding.Encoding) (string, bool) {
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", false
	}
	return string(out), true
}
