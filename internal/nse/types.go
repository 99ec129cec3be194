package nse

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"industrymap/internal/model"
)

// quoteResponse is the relevant slice of the quote-equity payload.
type quoteResponse struct {
	EquityResponse []struct {
		SecInfo *secInfo `json:"secInfo"`
	} `json:"equityResponse"`
}

// secInfo carries the four classification fields.
type secInfo struct {
	Macro         string `json:"macro"`
	Sector        string `json:"sector"`
	IndustryInfo  string `json:"industryInfo"`
	BasicIndustry string `json:"basicIndustry"`
}

// parseListingCSV extracts (SYMBOL, SERIES) pairs from a symbol-list CSV.
// Header cells sometimes carry stray whitespace, so column lookup trims.
func parseListingCSV(raw []byte) ([]model.Listing, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	symbolCol, seriesCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "SYMBOL":
			symbolCol = i
		case "SERIES":
			seriesCol = i
		}
	}
	if symbolCol < 0 || seriesCol < 0 {
		return nil, fmt.Errorf("csv missing SYMBOL/SERIES columns, header %v", header)
	}

	var listings []model.Listing
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if symbolCol >= len(row) || seriesCol >= len(row) {
			continue
		}

		symbol := strings.TrimSpace(row[symbolCol])
		series := strings.TrimSpace(row[seriesCol])
		if symbol == "" || series == "" {
			continue
		}
		listings = append(listings, model.Listing{Symbol: symbol, Series: series})
	}

	return listings, nil
}
