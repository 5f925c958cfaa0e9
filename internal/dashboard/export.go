package dashboard

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/moriyak/kessanlens/pkg/models"
)

// absentMark fills cells whose value could not be fetched or derived.
const absentMark = "-"

// csvHeader is the fixed export column order.
var csvHeader = []string{
	"コード", "会社名", "株価", "PER", "PBR", "配当利回り",
	"売上高(百万円)", "営業利益(百万円)", "経常利益(百万円)", "純利益(百万円)",
	"決算短信", "説明資料", "業績修正", "補足資料",
}

// WriteCSV writes merged rows as CSV. The output starts with a UTF-8
// BOM so spreadsheet applications pick the right encoding for the
// Japanese headers.
func WriteCSV(w io.Writer, rows []models.MergedRow) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.CompanyCode,
			row.CompanyName,
			floatCell(row.Market.Price),
			floatCell(row.Market.TrailingPE),
			floatCell(row.Market.PriceToBook),
			floatCell(row.Market.DividendYield),
			intCell(row.Quarterly.Sales),
			intCell(row.Quarterly.OperatingIncome),
			intCell(row.Quarterly.OrdinaryIncome),
			intCell(row.Quarterly.NetIncome),
		}
		for _, cat := range models.RowCategories {
			record = append(record, urlCell(row.Documents[cat]))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", row.CompanyCode, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func floatCell(v *float64) string {
	if v == nil {
		return absentMark
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func intCell(v *int64) string {
	if v == nil {
		return absentMark
	}
	return strconv.FormatInt(*v, 10)
}

func urlCell(url string) string {
	if url == "" {
		return absentMark
	}
	return url
}
