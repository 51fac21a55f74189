package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gmpdesk/gmp-dashboard/models"
	"github.com/gmpdesk/gmp-dashboard/shared"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

// Column order of the provider's live GMP report table. The HTML table
// mirrors the JSON feed column for column.
const gmpTableColumns = 11

// TableScrapeService recovers records from the provider's HTML report
// when the JSON feed is down. It reads the table as served in the
// initial document; no script execution is involved.
type TableScrapeService struct {
	scrapeURL string
	timeout   time.Duration
	pacer     *shared.RequestPacer
	logger    *logrus.Logger
}

var _ RecordSource = (*TableScrapeService)(nil)

// NewTableScrapeService creates a scraper for the given report page.
func NewTableScrapeService(scrapeURL string, timeout, spacing time.Duration) *TableScrapeService {
	return &TableScrapeService{
		scrapeURL: scrapeURL,
		timeout:   timeout,
		pacer:     shared.NewRequestPacer(spacing),
		logger:    logrus.StandardLogger(),
	}
}

// FetchRecords downloads and parses the GMP table into feed-shaped
// records.
func (s *TableScrapeService) FetchRecords(ctx context.Context) ([]models.GMPRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.pacer.Wait()
	started := time.Now()

	collector := colly.NewCollector()
	collector.SetRequestTimeout(s.timeout)

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", shared.BrowserUserAgent)
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	var records []models.GMPRecord
	collector.OnHTML("table tbody tr", func(row *colly.HTMLElement) {
		var columns []string
		row.DOM.Find("td").Each(func(_ int, cell *goquery.Selection) {
			columns = append(columns, strings.TrimSpace(cell.Text()))
		})
		if len(columns) < gmpTableColumns {
			return
		}
		records = append(records, models.GMPRecord{
			Name:             columns[0],
			Price:            columns[1],
			GMP:              columns[2],
			EstimatedListing: columns[3],
			Size:             columns[4],
			Lot:              columns[5],
			OpenDate:         columns[6],
			CloseDate:        columns[7],
			AllotmentDate:    columns[8],
			ListingDate:      columns[9],
			GMPUpdated:       columns[10],
			RowClass:         row.Attr("class"),
		})
	})

	var scrapeErr error
	collector.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		scrapeErr = shared.NewScrapeError("table_scrape",
			fmt.Sprintf("report page request failed (HTTP %d)", status), err)
	})

	if err := collector.Visit(s.scrapeURL); err != nil && scrapeErr == nil {
		scrapeErr = shared.NewScrapeError("table_scrape", "could not reach the report page", err)
	}
	if scrapeErr != nil {
		return nil, scrapeErr
	}
	if len(records) == 0 {
		return nil, shared.NewScrapeError("table_scrape", "no GMP rows found in the report table", nil)
	}

	s.logger.WithFields(logrus.Fields{
		"component": "scrape_service",
		"records":   len(records),
		"duration":  time.Since(started),
	}).Info("Scraped GMP table")
	return records, nil
}
